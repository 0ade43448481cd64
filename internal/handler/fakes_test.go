package handler

import (
	"context"
	"sync"

	"github.com/northbeam/leadsite/internal/dispatch"
	"github.com/northbeam/leadsite/internal/mail"
	"github.com/northbeam/leadsite/internal/model"
	"github.com/northbeam/leadsite/internal/repository"
)

// inlineDispatcher runs side effects synchronously.
type inlineDispatcher struct{}

func (inlineDispatcher) Go(_ string, fn dispatch.Task) bool {
	_ = fn(context.Background())
	return true
}

type captureMailer struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (m *captureMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	return nil
}

// store is an in-memory implementation of every service store.
type store struct {
	mu  sync.Mutex
	err error

	contacts    []*model.Contact
	subs        map[string]*model.NewsletterSubscription
	submissions []*model.ToolSubmission
	assessments map[string]*model.AssessmentSession
	users       map[string]*model.User
}

func newStore() *store {
	return &store{
		subs:        map[string]*model.NewsletterSubscription{},
		assessments: map[string]*model.AssessmentSession{},
		users:       map[string]*model.User{},
	}
}

func (s *store) CreateContact(_ context.Context, c *model.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.contacts = append(s.contacts, c)
	return nil
}

func (s *store) CreateSubscription(_ context.Context, sub *model.NewsletterSubscription) error {
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

func (s *store) UpdateSubscription(_ context.Context, sub *model.NewsletterSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	cp := *sub
	s.subs[sub.Email] = &cp
	return nil
}

func (s *store) findSub(match func(*model.NewsletterSubscription) bool) (*model.NewsletterSubscription, error) {
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

func (s *store) GetSubscriptionByEmail(_ context.Context, email string) (*model.NewsletterSubscription, error) {
	return s.findSub(func(sub *model.NewsletterSubscription) bool { return sub.Email == email })
}

func (s *store) GetSubscriptionByConfirmToken(_ context.Context, token string) (*model.NewsletterSubscription, error) {
	return s.findSub(func(sub *model.NewsletterSubscription) bool { return sub.ConfirmToken == token })
}

func (s *store) GetSubscriptionByUnsubscribeToken(_ context.Context, token string) (*model.NewsletterSubscription, error) {
	return s.findSub(func(sub *model.NewsletterSubscription) bool { return sub.UnsubscribeToken == token })
}

func (s *store) CreateSubmission(_ context.Context, sub *model.ToolSubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.submissions = append(s.submissions, sub)
	return nil
}

func (s *store) CreateAssessment(_ context.Context, a *model.AssessmentSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	cp := *a
	s.assessments[a.ID] = &cp
	return nil
}

func (s *store) GetAssessment(_ context.Context, id string) (*model.AssessmentSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assessments[id]
	if !ok {
		return nil, repository.ErrAssessmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *store) CompleteAssessment(_ context.Context, a *model.AssessmentSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
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

func (s *store) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}

func (s *store) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Email]; ok {
		return repository.ErrEmailExists
	}
	s.users[user.Email] = user
	return nil
}

func (s *store) ListContacts(_ context.Context, cursor string, _ int) (*repository.Page[model.Contact], error) {
	if cursor != "" {
		return nil, repository.ErrInvalidCursor
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return &repository.Page[model.Contact]{Items: s.contacts}, nil
}

func (s *store) ListSubscriptions(_ context.Context, status model.SubscriptionStatus, _ string, _ int) (*repository.Page[model.NewsletterSubscription], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	page := &repository.Page[model.NewsletterSubscription]{}
	for _, sub := range s.subs {
		if status == "" || sub.Status == status {
			page.Items = append(page.Items, sub)
		}
	}
	return page, nil
}

func (s *store) ListSubmissions(_ context.Context, tool string, _ string, _ int) (*repository.Page[model.ToolSubmission], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	page := &repository.Page[model.ToolSubmission]{}
	for _, sub := range s.submissions {
		if tool == "" || sub.Tool == tool {
			page.Items = append(page.Items, sub)
		}
	}
	return page, nil
}

func (s *store) onlySub() *model.NewsletterSubscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		cp := *sub
		return &cp
	}
	return nil
}
