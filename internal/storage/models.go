package storage

// Song is one catalog entry. Field names match the ViMusic schema the frontend
// expects, so JSON tags mirror the column names exactly.
type Song struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	ArtistsText     string `json:"artistsText"`
	DurationText    string `json:"durationText"`
	ThumbnailURL    string `json:"thumbnailUrl"`
	LikedAt         *int64 `json:"likedAt"`
	TotalPlayTimeMs int64  `json:"totalPlayTimeMs"`
}

// SongAttributes carries the writable Song fields supplied by the client when a
// song is first referenced by a favorite toggle or playlist add.
type SongAttributes struct {
	Title           string `json:"title"`
	ArtistsText     string `json:"artistsText"`
	DurationText    string `json:"durationText"`
	ThumbnailURL    string `json:"thumbnailUrl"`
	TotalPlayTimeMs int64  `json:"totalPlayTimeMs"`
}

// Playlist is a user-defined ordered collection of songs.
type Playlist struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
