package whitelist

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Waiter hands out a channel carrying the next inbound messages from
// one applicant in one chat channel. Implemented by the orchestrator,
// fed by the platform's message event handler
type Waiter interface {
	Await(userid string, channelid string) <-chan InboundMessage
	Release(userid string, channelid string)
}

// Questionnaire asks the questions of a rubric in sequence and collects
// one answer per question, in strict rubric order. A single unanswered
// question aborts the whole run
type Questionnaire struct {
	presenter Presenter
	waiter    Waiter
	timeout   time.Duration
}

func NewQuestionnaire(presenter Presenter, waiter Waiter, timeout time.Duration) *Questionnaire {
	return &Questionnaire{presenter: presenter, waiter: waiter, timeout: timeout}
}

// Run drives the scripted Q&A for one applicant. The done channel
// cancels the run when the attempt is torn down by another path.
// Prompts and answers are scaffolding: they are deleted afterwards,
// best effort
func (q *Questionnaire) Run(userid string, channelid string, rubric []Rubric, supplementary bool, done <-chan struct{}) ([]string, error) {

	inbound := q.waiter.Await(userid, channelid)
	defer q.waiter.Release(userid, channelid)

	questions := Questions(rubric)
	answers := make([]string, 0, len(questions))
	cleanup := make([]string, 0, 2*len(questions))
	defer func() {
		for _, messageid := range cleanup {
			if err := q.presenter.DeleteMessage(channelid, messageid); err != nil {
				log.Debug().Msg(fmt.Sprintf("Could not delete questionnaire message %s: %s", messageid, err))
			}
		}
	}()

	for i, question := range questions {

		messageid, err := q.presenter.Question(channelid, i+1, len(questions), question, supplementary)
		if err != nil {
			return nil, fmt.Errorf("could not send question %d to channel %s: %w", i+1, channelid, err)
		}
		cleanup = append(cleanup, messageid)

		// The timeout is per question, not per run
		timer := time.NewTimer(q.timeout)
		select {
		case message := <-inbound:
			timer.Stop()
			answers = append(answers, message.Content)
			cleanup = append(cleanup, message.MessageId)
		case <-timer.C:
			log.Info().Msg(fmt.Sprintf("User %s did not answer question %d in time", userid, i+1))
			return nil, ErrQuestionnaireTimeout
		case <-done:
			timer.Stop()
			return nil, ErrAttemptCancelled
		}
	}

	return answers, nil
}
