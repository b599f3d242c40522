package permissions_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resort/permissions"
	"resort/shared/constant"
)

func TestGet_EmbeddedDocument(t *testing.T) {
	doc := permissions.Get()
	require.NotNil(t, doc)

	login, found := doc.FindPermissions("/v1/auth/login", http.MethodPost)
	require.True(t, found)
	assert.True(t, login.Skip)

	changePassword, found := doc.FindPermissions("/v1/auth/change-password", http.MethodPost)
	require.True(t, found)
	assert.False(t, changePassword.Skip)
	assert.Contains(t, changePassword.Permissions, constant.RoleUser)
}

func TestFindPermissions_TrailingSlash(t *testing.T) {
	doc := permissions.Get()
	require.NotNil(t, doc)

	for _, path := range []string{"/v1/users", "/v1/users/"} {
		createUser, found := doc.FindPermissions(path, http.MethodPost)
		require.True(t, found, path)
		assert.Equal(t, []string{constant.RoleAdmin}, createUser.Permissions, path)
	}

	for _, path := range []string{"/v1/catalog", "/v1/catalog/"} {
		listItems, found := doc.FindPermissions(path, http.MethodGet)
		require.True(t, found, path)
		assert.True(t, listItems.Skip, path)
	}

	_, found := doc.FindPermissions("/v1/users/{id}/", http.MethodPut)
	assert.False(t, found)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name: "valid",
			doc:  `{"endpoints":[{"method":"get","path":"/v1/catalog/","skip":true},{"method":"DELETE","path":"/v1/users/{id}","permissions":["admin"]}]}`,
		},
		{
			name:    "unknown role",
			doc:     `{"endpoints":[{"method":"GET","path":"/v1/users/","permissions":["manager"]}]}`,
			wantErr: `unknown role "manager"`,
		},
		{
			name:    "duplicate route",
			doc:     `{"endpoints":[{"method":"GET","path":"/v1/users/"},{"method":"get","path":"/v1/users/"}]}`,
			wantErr: "duplicate permission",
		},
		{
			name:    "duplicate route differing by trailing slash",
			doc:     `{"endpoints":[{"method":"GET","path":"/v1/users"},{"method":"GET","path":"/v1/users/"}]}`,
			wantErr: "duplicate permission",
		},
		{
			name:    "unsupported method",
			doc:     `{"endpoints":[{"method":"TRACE","path":"/v1/users/"}]}`,
			wantErr: "unsupported method",
		},
		{
			name:    "malformed",
			doc:     `{"endpoints":`,
			wantErr: "failed to decode permissions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := permissions.Parse([]byte(tt.doc))
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			deleteUser, _ := doc.FindPermissions("/v1/users/{id}", http.MethodDelete)
			assert.Equal(t, []string{constant.RoleAdmin}, deleteUser.Permissions)

			listItems, _ := doc.FindPermissions("/v1/catalog", http.MethodGet)
			assert.True(t, listItems.Skip)

			unknown, found := doc.FindPermissions("/v1/nope", http.MethodGet)
			assert.False(t, found)
			assert.Equal(t, permissions.Permission{}, unknown)
		})
	}
}
