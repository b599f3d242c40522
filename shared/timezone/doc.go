// Package timezone pins every wall-clock computation to the resort's
// timezone, configured through APP_TIMEZONE as an IANA name such as
// "Asia/Kolkata". Booking dates are calendar days and go through
// CalendarDate, which is independent of the configured zone.
package timezone
