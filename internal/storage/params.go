package storage

// Lookup and write parameter structs shared by the service-level storage
// interfaces and their postgres implementations.

type GetUserParams struct {
	ID       int64
	Username string
	Email    string
}

type TitleFilters struct {
	Category string // exact category slug
	Genre    string // exact genre slug
	Name     string // case-insensitive substring
	Year     int32  // exact year, 0 means any
}

type CreateTitleParams struct {
	Name        string
	Year        int32
	Description string
	CategoryID  *int64
	GenreIDs    []int64
}

type UpdateTitleParams struct {
	ID          int64
	Name        string
	Year        int32
	Description string
	CategoryID  *int64
	// GenreIDs replaces the title's genre set when non-nil. An empty non-nil
	// slice clears it.
	GenreIDs []int64
}
