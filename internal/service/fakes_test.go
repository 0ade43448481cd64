package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/northbeam/leadsite/internal/dispatch"
	"github.com/northbeam/leadsite/internal/mail"
	"github.com/northbeam/leadsite/internal/metrics"
	"github.com/northbeam/leadsite/internal/model"
	"github.com/northbeam/leadsite/internal/repository"
)

var errStoreDown = errors.New("store down")

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// syncDispatcher runs tasks inline so tests can inspect their effects.
type syncDispatcher struct {
	mu    sync.Mutex
	kinds []string
	errs  []error
}

func (d *syncDispatcher) Go(kind string, fn dispatch.Task) bool {
	err := fn(context.Background())
	d.mu.Lock()
	d.kinds = append(d.kinds, kind)
	if err != nil {
		d.errs = append(d.errs, err)
	}
	d.mu.Unlock()
	return true
}

type recordingMailer struct {
	sent []mail.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type recordedEvent struct {
	Type string
	Data any
}

type fakeCRM struct {
	enabled bool
	events  []recordedEvent
}

func (c *fakeCRM) Enabled() bool { return c.enabled }

func (c *fakeCRM) Send(_ context.Context, eventType string, data any) error {
	c.events = append(c.events, recordedEvent{Type: eventType, Data: data})
	return nil
}

type harness struct {
	dispatcher *syncDispatcher
	mailer     *recordingMailer
	crm        *fakeCRM
	notifier   *Notifier
	metrics    *metrics.InMemoryRecorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	templates, err := mail.LoadTemplates()
	require.NoError(t, err)

	h := &harness{
		dispatcher: &syncDispatcher{},
		mailer:     &recordingMailer{},
		crm:        &fakeCRM{enabled: true},
		metrics:    metrics.NewInMemory(),
	}
	h.notifier = NewNotifier(NotifierConfig{
		Dispatcher:  h.dispatcher,
		Mailer:      h.mailer,
		Templates:   templates,
		CRM:         h.crm,
		TeamAddress: "team@northbeam.example",
		SiteURL:     "https://northbeam.example",
		Logger:      discardLogger(),
	})
	return h
}

func (h *harness) eventTypes() []string {
	types := make([]string, 0, len(h.crm.events))
	for _, e := range h.crm.events {
		types = append(types, e.Type)
	}
	return types
}

// memStore implements every store interface on maps.
type memStore struct {
	mu          sync.Mutex
	err         error
	completeErr error

	contacts    []*model.Contact
	subs        map[string]*model.NewsletterSubscription
	submissions []*model.ToolSubmission
	assessments map[string]*model.AssessmentSession
	users       map[string]*model.User
}

func newMemStore() *memStore {
	return &memStore{
		subs:        map[string]*model.NewsletterSubscription{},
		assessments: map[string]*model.AssessmentSession{},
		users:       map[string]*model.User{},
	}
}

func (s *memStore) CreateContact(_ context.Context, c *model.Contact) error {
	if s.err != nil {
		return s.err
	}
	s.contacts = append(s.contacts, c)
	return nil
}

func (s *memStore) CreateSubscription(_ context.Context, sub *model.NewsletterSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if _, ok := s.subs[sub.Email]; ok {
		return repository.ErrSubscriptionExists
	}
	cp := *sub
	s.subs[sub.Email] = &cp
	return nil
}

func (s *memStore) UpdateSubscription(_ context.Context, sub *model.NewsletterSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	cp := *sub
	s.subs[sub.Email] = &cp
	return nil
}

func (s *memStore) find(match func(*model.NewsletterSubscription) bool) (*model.NewsletterSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if match(sub) {
			cp := *sub
			return &cp, nil
		}
	}
	return nil, repository.ErrSubscriptionNotFound
}

func (s *memStore) GetSubscriptionByEmail(_ context.Context, email string) (*model.NewsletterSubscription, error) {
	return s.find(func(sub *model.NewsletterSubscription) bool { return sub.Email == email })
}

func (s *memStore) GetSubscriptionByConfirmToken(_ context.Context, token string) (*model.NewsletterSubscription, error) {
	return s.find(func(sub *model.NewsletterSubscription) bool { return sub.ConfirmToken == token })
}

func (s *memStore) GetSubscriptionByUnsubscribeToken(_ context.Context, token string) (*model.NewsletterSubscription, error) {
	return s.find(func(sub *model.NewsletterSubscription) bool { return sub.UnsubscribeToken == token })
}

func (s *memStore) CreateSubmission(_ context.Context, sub *model.ToolSubmission) error {
	if s.err != nil {
		return s.err
	}
	s.submissions = append(s.submissions, sub)
	return nil
}

func (s *memStore) CreateAssessment(_ context.Context, a *model.AssessmentSession) error {
	if s.err != nil {
		return s.err
	}
	cp := *a
	s.assessments[a.ID] = &cp
	return nil
}

func (s *memStore) GetAssessment(_ context.Context, id string) (*model.AssessmentSession, error) {
	a, ok := s.assessments[id]
	if !ok {
		return nil, repository.ErrAssessmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *memStore) CompleteAssessment(_ context.Context, a *model.AssessmentSession) error {
	if s.completeErr != nil {
		return s.completeErr
	}
	stored, ok := s.assessments[a.ID]
	if !ok {
		return repository.ErrAssessmentNotFound
	}
	if stored.IsCompleted() {
		return model.ErrAssessmentCompleted
	}
	cp := *a
	s.assessments[a.ID] = &cp
	return nil
}

func (s *memStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}

func (s *memStore) CreateUser(_ context.Context, user *model.User) error {
	if _, ok := s.users[user.Email]; ok {
		return repository.ErrEmailExists
	}
	s.users[user.Email] = user
	return nil
}

func (s *memStore) ListContacts(_ context.Context, _ string, _ int) (*repository.Page[model.Contact], error) {
	return &repository.Page[model.Contact]{Items: s.contacts}, nil
}

func (s *memStore) ListSubscriptions(_ context.Context, status model.SubscriptionStatus, _ string, _ int) (*repository.Page[model.NewsletterSubscription], error) {
	page := &repository.Page[model.NewsletterSubscription]{}
	for _, sub := range s.subs {
		if status == "" || sub.Status == status {
			page.Items = append(page.Items, sub)
		}
	}
	return page, nil
}

func (s *memStore) ListSubmissions(_ context.Context, tool string, _ string, _ int) (*repository.Page[model.ToolSubmission], error) {
	page := &repository.Page[model.ToolSubmission]{}
	for _, sub := range s.submissions {
		if tool == "" || sub.Tool == tool {
			page.Items = append(page.Items, sub)
		}
	}
	return page, nil
}
