package entity

type User struct {
	Base

	Name string

	// Timezone is an IANA location name, e.g. Asia/Tokyo. Calendar days of
	// streaks are counted in this location.
	Timezone string
}
