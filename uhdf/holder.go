package uhdf

// DatasetHolder contains datasets.
type DatasetHolder interface {
	DatasetNames() ([]string, error)
	OpenDataset(path string) (*Dataset, error)
}

// GroupHolder contains groups.
type GroupHolder interface {
	GroupNames() ([]string, error)
	OpenGroup(path string) (*Group, error)
}

// AttributeHolder carries attributes.
type AttributeHolder interface {
	AttributeNames() ([]string, error)
	OpenAttribute(name string) (*Attribute, error)
}

// Container is a file or group: it holds datasets, groups and attributes.
type Container interface {
	DatasetHolder
	GroupHolder
	AttributeHolder
}

var (
	_ Container       = (*File)(nil)
	_ Container       = (*Group)(nil)
	_ AttributeHolder = (*Dataset)(nil)
)
