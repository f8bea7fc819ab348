package bot

import (
	"context"
	"strconv"
	"strings"

	"github.com/gyanbazaar/ignou-study-bot/internal/config"
	"github.com/gyanbazaar/ignou-study-bot/internal/portal"
	"github.com/gyanbazaar/ignou-study-bot/internal/session"
)

// kindAction maps a query kind to its callback action, used by retry buttons.
func kindAction(kind portal.QueryKind) string {
	switch kind {
	case portal.KindGradeCard:
		return "gradecard"
	case portal.KindAssignmentMarks:
		return "marks"
	default:
		return "assignment"
	}
}

// startQuery begins the enrollment/programme prompt flow for one query kind.
// Users with saved defaults can send "." to reuse them.
func (b *Bot) startQuery(ctx context.Context, chatID int64, kind portal.QueryKind) {
	b.sessions.Set(session.Session{
		ChatID:    chatID,
		State:     session.StateAwaitingEnrollment,
		QueryKind: string(kind),
	})

	text := askEnrollmentText
	if user, err := b.db.GetUser(ctx, chatID); err == nil && user.Enrollment != "" {
		text += "\n\nSend . to reuse " + user.Enrollment + "."
	}
	b.reply(chatID, text)
}

func (b *Bot) handleEnrollmentInput(ctx context.Context, chatID int64, sess session.Session, input string) {
	enrollment := strings.TrimSpace(input)
	if enrollment == "." {
		user, err := b.db.GetUser(ctx, chatID)
		if err != nil || user.Enrollment == "" {
			b.reply(chatID, "No saved enrollment number yet. "+askEnrollmentText)
			return
		}
		enrollment = user.Enrollment
	}

	if !portal.ValidEnrollment(enrollment) {
		b.reply(chatID, "That doesn't look like an enrollment number. "+askEnrollmentText)
		return
	}

	sess.Enrollment = enrollment
	sess.State = session.StateAwaitingProgram
	b.sessions.Set(sess)

	text := askProgramText
	if user, err := b.db.GetUser(ctx, chatID); err == nil && user.Program != "" {
		text += "\n\nSend . to reuse " + user.Program + "."
	}
	b.reply(chatID, text)
}

func (b *Bot) handleProgramInput(ctx context.Context, chatID int64, sess session.Session, input string) {
	program := strings.TrimSpace(input)
	if program == "." {
		user, err := b.db.GetUser(ctx, chatID)
		if err != nil || user.Program == "" {
			b.reply(chatID, "No saved programme code yet. "+askProgramText)
			return
		}
		program = user.Program
	}

	if !portal.ValidProgram(program) {
		b.reply(chatID, "That doesn't look like a programme code. "+askProgramText)
		return
	}

	b.sessions.Clear(chatID)
	b.runQuery(ctx, chatID, portal.QueryKind(sess.QueryKind), sess.Enrollment, program)
}

// runQuery executes one portal query and sends the chunked report. Identical
// in-flight queries are coalesced so a double tap hits the portal once.
func (b *Bot) runQuery(ctx context.Context, chatID int64, kind portal.QueryKind, enrollment, program string) {
	req, err := portal.NewQueryRequest(kind, enrollment, program)
	if err != nil {
		b.reply(chatID, portal.ReasonFor(err))
		return
	}

	b.reply(chatID, queryRunningText)

	key := strings.Join([]string{
		strconv.FormatInt(chatID, 10), string(req.Kind), req.Enrollment, req.Program,
	}, "|")

	v, err, shared := b.queries.Do(key, func() (any, error) {
		qctx, cancel := context.WithTimeout(ctx, config.PortalQuery)
		defer cancel()
		return b.engine.Query(qctx, req)
	})
	if shared {
		b.metrics.QueryCoalescedTotal.Inc()
	}
	if err != nil {
		b.log.WithError(err).WithChatID(chatID).Warnf("portal query failed")
		b.replyWithKeyboard(chatID, portal.ReasonFor(err), retryKeyboard(kindAction(kind)))
		return
	}

	res := v.(*portal.Result)
	for _, chunk := range res.Chunks {
		b.reply(chatID, chunk)
	}

	if err := b.db.SaveQueryDefaults(ctx, chatID, req.Enrollment, req.Program); err != nil {
		b.log.WithError(err).WithChatID(chatID).Warnf("failed to save query defaults")
	}
}
