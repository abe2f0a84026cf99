package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"manabi/backend/internal/model"
	"manabi/backend/internal/repository"
	"manabi/backend/pkg/notifier"
)

var errMockStore = errors.New("mock store unavailable")

// ── Mock ReminderSettingsRepository ──

type mockReminderSettingsRepo struct {
	settings  map[string]*model.ReminderSettings
	getErr    error
	createErr error
	updateErr error
	creates   int
}

func newMockReminderSettingsRepo() *mockReminderSettingsRepo {
	return &mockReminderSettingsRepo{settings: make(map[string]*model.ReminderSettings)}
}

func (m *mockReminderSettingsRepo) GetByUserID(_ context.Context, userID string) (*model.ReminderSettings, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	s, ok := m.settings[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s
	return &copied, nil
}

func (m *mockReminderSettingsRepo) CreateIfAbsent(_ context.Context, settings *model.ReminderSettings) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.creates++
	if _, ok := m.settings[settings.UserID]; ok {
		return nil
	}
	copied := *settings
	m.settings[settings.UserID] = &copied
	return nil
}

func (m *mockReminderSettingsRepo) Update(_ context.Context, settings *model.ReminderSettings) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.settings[settings.UserID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *settings
	m.settings[settings.UserID] = &copied
	return nil
}

// ── Mock ReminderRepository ──

type mockReminderRepo struct {
	reminders map[string]*model.Reminder
	batches   int
	seq       int
	createErr error
	listErr   error
	updateErr error
}

func newMockReminderRepo() *mockReminderRepo {
	return &mockReminderRepo{reminders: make(map[string]*model.Reminder)}
}

func (m *mockReminderRepo) add(r model.Reminder) *model.Reminder {
	if r.ReminderID == "" {
		m.seq++
		r.ReminderID = fmt.Sprintf("00000000-0000-4000-8000-%012d", m.seq)
	}
	m.reminders[r.ReminderID] = &r
	return &r
}

func (m *mockReminderRepo) CreateBatch(_ context.Context, reminders []model.Reminder) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.batches++
	for i := range reminders {
		stored := m.add(reminders[i])
		reminders[i].ReminderID = stored.ReminderID
	}
	return nil
}

func (m *mockReminderRepo) GetByID(_ context.Context, id string) (*model.Reminder, error) {
	r, ok := m.reminders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *r
	return &copied, nil
}

func (m *mockReminderRepo) UpdateStatus(_ context.Context, id, status string, updatedAt time.Time) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	r, ok := m.reminders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	r.Status = status
	r.UpdatedAt = updatedAt
	return nil
}

func (m *mockReminderRepo) sorted(filter func(*model.Reminder) bool) []model.Reminder {
	var result []model.Reminder
	for _, r := range m.reminders {
		if filter(r) {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ScheduledAt.Before(result[j].ScheduledAt) })
	return result
}

func (m *mockReminderRepo) ListPendingDue(_ context.Context, now time.Time, limit int) ([]model.Reminder, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	result := m.sorted(func(r *model.Reminder) bool {
		return r.Status == model.ReminderStatusPending && !r.ScheduledAt.After(now)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *mockReminderRepo) ListByUserBetween(_ context.Context, userID string, from, to time.Time) ([]model.Reminder, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.sorted(func(r *model.Reminder) bool {
		return r.UserID == userID && !r.ScheduledAt.Before(from) && !r.ScheduledAt.After(to)
	}), nil
}

func (m *mockReminderRepo) CountPendingDue(ctx context.Context, now time.Time) (int64, error) {
	due, err := m.ListPendingDue(ctx, now, len(m.reminders)+1)
	return int64(len(due)), err
}

// ── Mock LearningRecordRepository ──

type mockLearningRecordRepo struct {
	records   map[string]*model.LearningRecord
	seq       int
	createErr error
	getErr    error
}

func newMockLearningRecordRepo() *mockLearningRecordRepo {
	return &mockLearningRecordRepo{records: make(map[string]*model.LearningRecord)}
}

func (m *mockLearningRecordRepo) Create(_ context.Context, record *model.LearningRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	if record.RecordID == "" {
		m.seq++
		record.RecordID = fmt.Sprintf("00000000-0000-4000-9000-%012d", m.seq)
	}
	copied := *record
	m.records[record.RecordID] = &copied
	return nil
}

func (m *mockLearningRecordRepo) GetByID(_ context.Context, id string) (*model.LearningRecord, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	r, ok := m.records[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *r
	return &copied, nil
}

func (m *mockLearningRecordRepo) GetByIDs(_ context.Context, ids []string) ([]model.LearningRecord, error) {
	var result []model.LearningRecord
	for _, id := range ids {
		if r, ok := m.records[id]; ok {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockLearningRecordRepo) List(_ context.Context, userID string, offset, limit int) ([]model.LearningRecord, int64, error) {
	var all []model.LearningRecord
	for _, r := range m.records {
		if r.UserID == userID {
			all = append(all, *r)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CompletedAt.After(all[j].CompletedAt) })
	total := int64(len(all))
	if offset >= len(all) {
		return []model.LearningRecord{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

// ── Mock Locker ──

type mockLocker struct {
	mu    sync.Mutex
	held  map[string]bool
	err     error
	calls   []string
	unlocks []string
}

func newMockLocker() *mockLocker {
	return &mockLocker{held: make(map[string]bool)}
}

func (m *mockLocker) TryLock(_ context.Context, key string, _ time.Duration) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, key)
	if m.err != nil {
		return "", false, m.err
	}
	if m.held[key] {
		return "", false, nil
	}
	m.held[key] = true
	return "token:" + key, true, nil
}

func (m *mockLocker) Unlock(_ context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unlocks = append(m.unlocks, key)
	if token == "token:"+key {
		delete(m.held, key)
	}
	return nil
}

// ── Mock Notifier ──

type sentNotification struct {
	userID  string
	method  string
	payload notifier.Payload
}

type mockNotifier struct {
	sent    []sentNotification
	failFor map[string]error // method → error
}

func (m *mockNotifier) Send(_ context.Context, userID, method string, payload *notifier.Payload) error {
	if err, ok := m.failFor[method]; ok {
		return err
	}
	m.sent = append(m.sent, sentNotification{userID: userID, method: method, payload: *payload})
	return nil
}

// ── Mock TokenBlacklist ──

type mockBlacklist struct {
	entries map[string]time.Duration
	err     error
}

func (m *mockBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	if m.err != nil {
		return m.err
	}
	if m.entries == nil {
		m.entries = make(map[string]time.Duration)
	}
	m.entries[jti] = ttl
	return nil
}

// ── 聚合 ──

type mockRepos struct {
	settings *mockReminderSettingsRepo
	reminder *mockReminderRepo
	record   *mockLearningRecordRepo
}

func newMockRepos() (*repository.Repository, *mockRepos) {
	m := &mockRepos{
		settings: newMockReminderSettingsRepo(),
		reminder: newMockReminderRepo(),
		record:   newMockLearningRecordRepo(),
	}
	return &repository.Repository{
		ReminderSettings: m.settings,
		Reminder:         m.reminder,
		LearningRecord:   m.record,
	}, m
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
