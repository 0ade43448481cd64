package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northbeam/leadsite/internal/crm"
	"github.com/northbeam/leadsite/internal/model"
)

type newsletterFixture struct {
	svc   *NewsletterService
	store *memStore
	h     *harness
	now   time.Time
	seq   int
}

func newNewsletterFixture(t *testing.T) *newsletterFixture {
	t.Helper()
	f := &newsletterFixture{store: newMemStore(), h: newHarness(t), now: fixedNow}
	f.svc = NewNewsletterService(f.store, f.h.notifier, NewsletterConfig{
		PublicAPIURL:  "https://api.northbeam.example/",
		TokenTTL:      48 * time.Hour,
		DefaultLocale: "en",
	}, discardLogger(), f.h.metrics)
	f.svc.now = func() time.Time { return f.now }
	f.svc.newToken = func() (string, error) {
		f.seq++
		return fmt.Sprintf("%064x", f.seq), nil
	}
	return f
}

func (f *newsletterFixture) sub(t *testing.T, email string) *model.NewsletterSubscription {
	t.Helper()
	s, err := f.store.GetSubscriptionByEmail(context.Background(), email)
	require.NoError(t, err)
	return s
}

func TestNewsletter_SubscribeNew(t *testing.T) {
	f := newNewsletterFixture(t)

	status, err := f.svc.Subscribe(context.Background(), SubscribeInput{Email: "Grace@Example.com", FirstName: "Grace", Locale: "de"}, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionPending, status)

	sub := f.sub(t, "grace@example.com")
	assert.Equal(t, model.SubscriptionPending, sub.Status)
	assert.Equal(t, "de", sub.Locale)
	assert.Equal(t, fixedNow.Add(48*time.Hour), sub.ConfirmTokenExpiresAt)
	assert.NotEqual(t, sub.ConfirmToken, sub.UnsubscribeToken)

	require.Len(t, f.h.mailer.sent, 1)
	msg := f.h.mailer.sent[0]
	assert.Equal(t, "grace@example.com", msg.To)
	assert.Contains(t, msg.Text, "https://api.northbeam.example/api/newsletter/confirm?token="+sub.ConfirmToken)
	assert.Contains(t, msg.Text, "/api/newsletter/unsubscribe?token="+sub.UnsubscribeToken)
	assert.Empty(t, f.h.crm.events)
}

func TestNewsletter_ResubscribePendingRotatesToken(t *testing.T) {
	f := newNewsletterFixture(t)
	ctx := context.Background()

	_, err := f.svc.Subscribe(ctx, SubscribeInput{Email: "a@example.com"}, RequestMeta{})
	require.NoError(t, err)
	first := f.sub(t, "a@example.com")

	f.now = f.now.Add(time.Hour)
	status, err := f.svc.Subscribe(ctx, SubscribeInput{Email: "a@example.com"}, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionPending, status)

	second := f.sub(t, "a@example.com")
	assert.NotEqual(t, first.ConfirmToken, second.ConfirmToken)
	assert.Equal(t, first.UnsubscribeToken, second.UnsubscribeToken)
	assert.Equal(t, f.now.Add(48*time.Hour), second.ConfirmTokenExpiresAt)
	assert.Len(t, f.h.mailer.sent, 2)

	// The rotated-out token no longer confirms.
	out, err := f.svc.Confirm(ctx, first.ConfirmToken)
	require.NoError(t, err)
	assert.Equal(t, LinkInvalid, out.Status)
}

func TestNewsletter_ConfirmFlow(t *testing.T) {
	f := newNewsletterFixture(t)
	ctx := context.Background()

	_, err := f.svc.Subscribe(ctx, SubscribeInput{Email: "b@example.com", Locale: "de"}, RequestMeta{})
	require.NoError(t, err)
	token := f.sub(t, "b@example.com").ConfirmToken

	out, err := f.svc.Confirm(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, LinkOutcome{Status: LinkConfirmed, Locale: "de"}, out)
	assert.Equal(t, model.SubscriptionConfirmed, f.sub(t, "b@example.com").Status)
	assert.Equal(t, []string{crm.EventNewsletterConfirmed}, f.h.eventTypes())

	// Idempotent, and no second CRM event.
	out, err = f.svc.Confirm(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, LinkConfirmed, out.Status)
	assert.Len(t, f.h.crm.events, 1)

	// Subscribing again while confirmed changes nothing and sends nothing.
	sent := len(f.h.mailer.sent)
	status, err := f.svc.Subscribe(ctx, SubscribeInput{Email: "b@example.com"}, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionConfirmed, status)
	assert.Len(t, f.h.mailer.sent, sent)
}

func TestNewsletter_ConfirmExpired(t *testing.T) {
	f := newNewsletterFixture(t)
	ctx := context.Background()

	_, err := f.svc.Subscribe(ctx, SubscribeInput{Email: "c@example.com"}, RequestMeta{})
	require.NoError(t, err)
	token := f.sub(t, "c@example.com").ConfirmToken

	f.now = f.now.Add(48 * time.Hour)
	out, err := f.svc.Confirm(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, LinkExpired, out.Status)
	assert.Equal(t, model.SubscriptionPending, f.sub(t, "c@example.com").Status)
}

func TestNewsletter_ConfirmInvalidTokens(t *testing.T) {
	f := newNewsletterFixture(t)
	ctx := context.Background()

	_, err := f.svc.Confirm(ctx, "")
	assert.ErrorIs(t, err, ErrMissingToken)

	out, err := f.svc.Confirm(ctx, "not-hex")
	require.NoError(t, err)
	assert.Equal(t, LinkOutcome{Status: LinkInvalid, Locale: "en"}, out)

	out, err = f.svc.Confirm(ctx, strings.Repeat("f", 64))
	require.NoError(t, err)
	assert.Equal(t, LinkInvalid, out.Status)
}

func TestNewsletter_UnsubscribeAndResubscribe(t *testing.T) {
	f := newNewsletterFixture(t)
	ctx := context.Background()

	_, err := f.svc.Subscribe(ctx, SubscribeInput{Email: "d@example.com"}, RequestMeta{})
	require.NoError(t, err)
	sub := f.sub(t, "d@example.com")
	_, err = f.svc.Confirm(ctx, sub.ConfirmToken)
	require.NoError(t, err)

	out, err := f.svc.Unsubscribe(ctx, sub.UnsubscribeToken)
	require.NoError(t, err)
	assert.Equal(t, LinkUnsubscribed, out.Status)
	first := f.sub(t, "d@example.com")
	assert.Equal(t, model.SubscriptionUnsubscribed, first.Status)

	// Idempotent.
	f.now = f.now.Add(time.Minute)
	out, err = f.svc.Unsubscribe(ctx, sub.UnsubscribeToken)
	require.NoError(t, err)
	assert.Equal(t, LinkUnsubscribed, out.Status)
	assert.Equal(t, first.UnsubscribedAt, f.sub(t, "d@example.com").UnsubscribedAt)

	// Old confirm token cannot resurrect an unsubscribed address.
	out, err = f.svc.Confirm(ctx, sub.ConfirmToken)
	require.NoError(t, err)
	assert.Equal(t, LinkInvalid, out.Status)

	// Re-subscribing restarts double opt-in.
	status, err := f.svc.Subscribe(ctx, SubscribeInput{Email: "d@example.com"}, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionPending, status)
	again := f.sub(t, "d@example.com")
	assert.Nil(t, again.UnsubscribedAt)
	assert.NotEqual(t, sub.ConfirmToken, again.ConfirmToken)
	assert.Equal(t, sub.UnsubscribeToken, again.UnsubscribeToken)
}

func TestNewsletter_UnsubscribeUnknown(t *testing.T) {
	f := newNewsletterFixture(t)

	out, err := f.svc.Unsubscribe(context.Background(), strings.Repeat("a", 64))
	require.NoError(t, err)
	assert.Equal(t, LinkInvalid, out.Status)

	_, err = f.svc.Unsubscribe(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestNewsletter_SubscribeStoreFailure(t *testing.T) {
	f := newNewsletterFixture(t)
	f.store.err = errStoreDown

	_, err := f.svc.Subscribe(context.Background(), SubscribeInput{Email: "e@example.com"}, RequestMeta{})
	assert.ErrorIs(t, err, errStoreDown)
	assert.Empty(t, f.h.mailer.sent)
}

func TestNewsletter_SubscribeInvalidEmail(t *testing.T) {
	f := newNewsletterFixture(t)

	_, err := f.svc.Subscribe(context.Background(), SubscribeInput{Email: "nope"}, RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, "email must be a valid email address", err.Error())
}
