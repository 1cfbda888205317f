package domain

// DocumentRef identifies an existing remote document and its current version
type DocumentRef struct {
	ID      string
	Version int
	Title   string
	Space   string
}

// RemoteDocument is the payload of a create or update call.
// ID is empty for a create; Version carries the version the store should
// assign, i.e. the current version + 1 for an update.
type RemoteDocument struct {
	ID      string
	Version int
	Title   string
	Space   string
	Body    string
}

func (d RemoteDocument) IsNew() bool {
	return d.ID == ""
}

// Credentials are resolved right before talking to a remote store
type Credentials struct {
	Username string
	Token    string
}
