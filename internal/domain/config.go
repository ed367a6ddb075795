package domain

// CollectionConfig maps each tracked kind to its collection name.
type CollectionConfig struct {
	Card           string `yaml:"card"`
	Collection     string `yaml:"collection"`
	CollectionLink string `yaml:"collectionLink"`
}

func DefaultCollectionConfig() CollectionConfig {
	return CollectionConfig{
		Card:           "network.cosmik.card",
		Collection:     "network.cosmik.collection",
		CollectionLink: "network.cosmik.collectionLink",
	}
}

func (c CollectionConfig) KindOf(collection string) (ResourceKind, bool) {
	switch collection {
	case "":
		return "", false
	case c.Card:
		return ResourceKindCard, true
	case c.Collection:
		return ResourceKindCollection, true
	case c.CollectionLink:
		return ResourceKindCollectionLink, true
	default:
		return "", false
	}
}

// Names returns the allow-list used to filter the subscription.
func (c CollectionConfig) Names() []string {
	return []string{c.Card, c.Collection, c.CollectionLink}
}
