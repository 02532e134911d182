package model

import "time"

// LearnerProfile is the per-learner state built during a session.
type LearnerProfile struct {
	DisplayName    string             `json:"display_name,omitempty"`
	Preferences    map[string]float64 `json:"preferences"`
	CompletedNodes []string           `json:"completed_nodes"`
}

// HasCompleted reports whether nodeID is already in CompletedNodes.
func (p *LearnerProfile) HasCompleted(nodeID string) bool {
	for _, id := range p.CompletedNodes {
		if id == nodeID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (p LearnerProfile) Clone() LearnerProfile {
	out := LearnerProfile{
		DisplayName:    p.DisplayName,
		Preferences:    make(map[string]float64, len(p.Preferences)),
		CompletedNodes: append([]string{}, p.CompletedNodes...),
	}
	for k, v := range p.Preferences {
		out.Preferences[k] = v
	}
	return out
}

// Turn is one answered onboarding question.
type Turn struct {
	ID         string    `json:"id"`
	QuestionID string    `json:"question_id"`
	Answer     string    `json:"answer"`
	AnsweredAt time.Time `json:"answered_at"`
}

// Session is the server-held record of one learner's progress.
type Session struct {
	ID                string         `json:"id"`
	Profile           LearnerProfile `json:"profile"`
	CurrentNodeID     string         `json:"current_node_id,omitempty"`
	AnsweredQuestions []string       `json:"answered_questions"`
	QuestionIndex     int            `json:"question_index"`
	ConversationLog   []Turn         `json:"conversation_log"`
	CreatedAt         time.Time      `json:"created_at"`
	ExpiresAt         time.Time      `json:"expires_at"`
	RewardPoints      int            `json:"reward_points"`
}

// HasAnswered reports whether questionID was already answered.
func (s *Session) HasAnswered(questionID string) bool {
	for _, id := range s.AnsweredQuestions {
		if id == questionID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy that shares nothing with s.
func (s *Session) Clone() Session {
	out := *s
	out.Profile = s.Profile.Clone()
	out.AnsweredQuestions = append([]string{}, s.AnsweredQuestions...)
	out.ConversationLog = append([]Turn{}, s.ConversationLog...)
	return out
}
