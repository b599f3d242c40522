package dto

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeWithAliases decodes data into target and then fills each empty string
// in aliases from its alternative key. Alternative keys match case-insensitively,
// so "bookingId" also covers "bookingID". Target must not be the type whose
// UnmarshalJSON calls this.
func DecodeWithAliases(data []byte, target any, aliases map[string]*string) error {
	if err := json.Unmarshal(data, target); err != nil {
		return err //nolint:wrapcheck
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err //nolint:wrapcheck
	}

	for alias, dst := range aliases {
		if *dst != "" {
			continue
		}

		for key, value := range raw {
			if !strings.EqualFold(key, alias) {
				continue
			}

			if err := json.Unmarshal(value, dst); err != nil {
				return fmt.Errorf("invalid value for %q: %w", key, err)
			}

			break
		}
	}

	return nil
}
