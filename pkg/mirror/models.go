package mirror

// Identity is the resolved MD5/extension pair for a post. Immutable once
// returned.
type Identity struct {
	MD5 string
	Ext string
}

// RemoteBatch is one entry of the publisher's directory listing
type RemoteBatch struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	DownloadURL string `json:"download_url"`
}
