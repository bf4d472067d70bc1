package bindle

// Version is the schema version written into new stores.
// MinVersion is the oldest version Open will accept; version 1 stores
// predate the sharded object layout and cannot be read.
const (
	Version    = 2
	MinVersion = 2
)

// Config is the store's versioned configuration record, written once
// at Create and read back on Open.  It is read-only for the lifetime
// of an Odb handle.
type Config struct {
	Version  int  `json:"version"`
	Filemode bool `json:"filemode"`
	Symlinks bool `json:"symlinks"`
}
