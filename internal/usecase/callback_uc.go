// File: internal/usecase/callback_uc.go
package usecase

import (
	"context"
	"sync"
	"time"

	"telegram-group-warden/internal/domain/model"
	"telegram-group-warden/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// CallbackUseCase executes the side effects of one callback answer. All
// requested modes run concurrently; one failing mode never blocks another,
// and an unknown mode is logged and skipped.
type CallbackUseCase interface {
	Dispatch(ctx context.Context, rc *model.RequestContext, answer model.CallbackAnswer) *model.CallbackResult
}

type callbackUC struct {
	delivery  DeliveryUseCase
	lifecycle LifecycleUseCase
	muteFor   time.Duration
	log       *zerolog.Logger
	now       func() time.Time
}

var _ CallbackUseCase = (*callbackUC)(nil)

func NewCallbackUseCase(delivery DeliveryUseCase, lifecycle LifecycleUseCase, muteFor time.Duration, log *zerolog.Logger) *callbackUC {
	if muteFor <= 0 {
		muteFor = time.Minute
	}
	return &callbackUC{delivery: delivery, lifecycle: lifecycle, muteFor: muteFor, log: log, now: time.Now}
}

func (u *callbackUC) Dispatch(ctx context.Context, rc *model.RequestContext, answer model.CallbackAnswer) *model.CallbackResult {
	result := &model.CallbackResult{IsSuccess: true}
	if rc.CallbackQuery == nil {
		result.IsSuccess = false
		return result
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	fail := func(mode model.CallbackAnswerMode) {
		mu.Lock()
		result.IsSuccess = false
		result.Failed = append(result.Failed, mode)
		mu.Unlock()
	}

	for _, mode := range answer.Modes {
		mode := mode
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok := u.runMode(ctx, rc, answer, mode, result, &mu)
			metrics.IncCallbackAnswer(string(mode), ok)
			if !ok {
				fail(mode)
			}
		}()
	}
	wg.Wait()
	return result
}

func (u *callbackUC) runMode(ctx context.Context, rc *model.RequestContext, answer model.CallbackAnswer, mode model.CallbackAnswerMode, result *model.CallbackResult, mu *sync.Mutex) bool {
	switch mode {
	case model.AnswerCallback:
		return u.delivery.AnswerCallback(ctx, rc.CallbackQuery.ID, answer.Text, answer.ShowAlert)

	case model.AnswerSendMessage:
		sent := u.delivery.Send(ctx, rc, answer.Text, SendOptions{Rows: answer.Rows})
		if sent == nil {
			return false
		}
		mu.Lock()
		result.SentMessage = sent
		mu.Unlock()
		return true

	case model.AnswerEditMessage:
		msgID := u.targetMessageID(rc, answer)
		edited := u.delivery.Edit(ctx, rc, msgID, answer.Text, SendOptions{Rows: answer.Rows})
		if edited == nil {
			return false
		}
		mu.Lock()
		result.UpdatedMessage = edited
		mu.Unlock()
		return true

	case model.AnswerDeleteMessage:
		return u.delivery.Delete(ctx, rc.ChatID(), u.targetMessageID(rc, answer))

	case model.AnswerMuteMember:
		d := answer.MuteDuration
		if d <= 0 {
			d = u.muteFor
		}
		res := u.delivery.Restrict(ctx, rc.ChatID(), rc.FromID(), u.now().Add(d), false)
		return res.IsSuccess

	case model.AnswerKickMember:
		_, err := u.lifecycle.ScheduleKick(ctx, rc.ChatID(), rc.FromID(), model.StepHumanVerification, answer.KickReason, 0)
		if err != nil {
			u.log.Error().Err(err).Msg("callback kick scheduling failed")
			return false
		}
		return true

	case model.AnswerBanMember, model.AnswerKickMemberHard:
		// Reserved modes, accepted but not acted on.
		return true

	default:
		u.log.Debug().Str("mode", string(mode)).Msg("unknown callback answer mode ignored")
		return true
	}
}

func (u *callbackUC) targetMessageID(rc *model.RequestContext, answer model.CallbackAnswer) int {
	if answer.DeleteMessageID > 0 {
		return answer.DeleteMessageID
	}
	return rc.MessageID()
}
