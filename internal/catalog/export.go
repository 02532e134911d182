package catalog

import "github.com/rcliao/learning-beast/internal/model"

// Document is the combined export format of a catalog.
type Document struct {
	Questions []model.Question     `json:"questions"`
	Nodes     []model.LearningNode `json:"nodes"`
}

// Export copies a Provider's contents into a Document.
func Export(p Provider) Document {
	return Document{
		Questions: append([]model.Question{}, p.Questions()...),
		Nodes:     append([]model.LearningNode{}, p.Nodes()...),
	}
}
