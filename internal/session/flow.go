package session

import (
	"fmt"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/rcliao/learning-beast/internal/model"
)

// NextQuestion returns the question at the session's index, or nil once
// every onboarding question has been answered.
func (e *Engine) NextQuestion(sessionID string) (*model.Question, error) {
	sess, err := e.store.Get(sessionID)
	if err != nil {
		return nil, e.fail("next_question", err)
	}
	return e.questionAt(sess.QuestionIndex), nil
}

// questionAt returns the question at catalog position i, or nil past the end.
func (e *Engine) questionAt(i int) *model.Question {
	questions := e.catalog.Questions()
	if i < 0 || i >= len(questions) {
		return nil
	}
	q := questions[i]
	return &q
}

// SubmitAnswer records an already sanitized answer for questionID.
//
// Any catalog question is accepted, not only the one currently served: the
// index counts answers rather than tracking the answered question's
// position. When the count reaches the number of questions, the first
// learning node is selected.
func (e *Engine) SubmitAnswer(sessionID, questionID, answer string) (model.Question, error) {
	answered, _, err := e.submitAnswer(sessionID, questionID, answer)
	return answered, err
}

// submitAnswer records the answer and resolves the next question under the
// same session lock, so a committed answer is never reported as a failure.
func (e *Engine) submitAnswer(sessionID, questionID, answer string) (model.Question, *model.Question, error) {
	var (
		answered  model.Question
		next      *model.Question
		completed bool
		firstNode string
	)
	err := e.store.Update(sessionID, func(s *model.Session) error {
		q, ok := e.catalog.Question(questionID)
		if !ok {
			return fmt.Errorf("question %q: %w", questionID, model.ErrNotFound)
		}
		if s.HasAnswered(q.ID) {
			return fmt.Errorf("question %q: %w", q.ID, model.ErrAlreadyAnswered)
		}
		if err := ApplyWeights(&s.Profile, q.Weights); err != nil {
			return fmt.Errorf("question %q: %w", q.ID, err)
		}

		s.ConversationLog = append(s.ConversationLog, model.Turn{
			ID:         ulid.Make().String(),
			QuestionID: q.ID,
			Answer:     answer,
			AnsweredAt: e.store.now().UTC(),
		})
		s.AnsweredQuestions = append(s.AnsweredQuestions, q.ID)

		total := len(e.catalog.Questions())
		if s.QuestionIndex < total {
			s.QuestionIndex++
			if s.QuestionIndex == total {
				completed = true
				s.CurrentNodeID, _ = chooseFirstNode(s.Profile.Preferences, e.catalog.Nodes())
				firstNode = s.CurrentNodeID
			}
		}
		answered = q
		next = e.questionAt(s.QuestionIndex)
		return nil
	})
	if err != nil {
		return model.Question{}, nil, e.fail("answer_question", err)
	}

	e.metrics.questionAnswered(completed)
	if completed {
		e.logger.Debug("onboarding complete",
			zap.String("session", shortID(sessionID)),
			zap.String("first_node", firstNode))
	}
	return answered, next, nil
}
