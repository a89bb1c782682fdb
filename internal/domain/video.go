package domain

// Video is one catalog entry. Exactly one of VideoId or DriveFileId is set;
// it decides which player backend gets mounted for the slot.
type Video struct {
	Id           int    `json:"id"`
	VideoId      string `json:"videoId,omitempty"`
	DriveFileId  string `json:"driveFileId,omitempty"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

func (v Video) IsYouTube() bool {
	return v.VideoId != ""
}

func (v Video) IsDrive() bool {
	return v.VideoId == "" && v.DriveFileId != ""
}
