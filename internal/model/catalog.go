// Package model defines the core onboarding and learning-path data types.
package model

// Question is one step of the onboarding questionnaire.
type Question struct {
	ID            string             `json:"id" yaml:"id" validate:"required"`
	Prompt        string             `json:"prompt" yaml:"prompt" validate:"required"`
	FollowUp      string             `json:"follow_up" yaml:"follow_up"`
	Category      string             `json:"category" yaml:"category"`
	Weights       map[string]float64 `json:"weights" yaml:"weights"`
	SampleAnswers []string           `json:"sample_answers" yaml:"sample_answers"`
}

// LearningNode is a unit of content in the learning graph.
// NextNodes may reference ids that are not in the catalog.
type LearningNode struct {
	ID                 string   `json:"id" yaml:"id" validate:"required"`
	Title              string   `json:"title" yaml:"title" validate:"required"`
	Summary            string   `json:"summary" yaml:"summary"`
	Category           string   `json:"category" yaml:"category"`
	ActivityType       string   `json:"activity_type" yaml:"activity_type"`
	Content            string   `json:"content" yaml:"content"`
	EstimatedMinutes   int      `json:"estimated_minutes" yaml:"estimated_minutes" validate:"gte=0"`
	RewardOnCompletion int      `json:"reward_on_completion" yaml:"reward_on_completion" validate:"gte=0"`
	NextNodes          []string `json:"next_nodes" yaml:"next_nodes"`
}
