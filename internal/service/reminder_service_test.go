package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"manabi/backend/config"
	"manabi/backend/internal/model"
)

// ── 测试辅助 ──

func testReminderConfig() *config.ReminderConfig {
	return &config.ReminderConfig{
		DefaultIntervals: []int{1, 3, 7, 14, 30},
		Timezone:         "UTC",
		DueBatchLimit:    100,
		IdempotencyTTL:   10 * time.Minute,
		DispatchBurst:    10,
		DispatchLockTTL:  time.Minute,
	}
}

func setupTestReminderService(now time.Time) (*reminderService, *mockRepos) {
	repo, mocks := newMockRepos()
	svc := NewReminderService(testReminderConfig(), repo, nil, zap.NewNop()).(*reminderService)
	svc.now = fixedClock(now)
	return svc, mocks
}

func seedSettings(mocks *mockRepos, userID string, enabled bool, intervals []int, methods ...string) {
	s := model.NewDefaultReminderSettings(userID, nil, time.Now().UTC())
	s.Enabled = enabled
	s.ReviewIntervals = intervals
	if len(methods) > 0 {
		s.NotificationMethods = methods
	}
	mocks.settings.settings[userID] = s
}

func seedReminder(mocks *mockRepos, userID, recordID string, at time.Time, status string) *model.Reminder {
	return mocks.reminder.add(model.Reminder{
		UserID:       userID,
		RecordID:     recordID,
		ScheduledAt:  at,
		Status:       status,
		Type:         model.ReminderTypeReview,
		IntervalDays: 1,
		BaseModel:    model.BaseModel{CreatedAt: at, UpdatedAt: at},
	})
}

func seedRecord(mocks *mockRepos, id, userID, subject, topic string) {
	mocks.record.records[id] = &model.LearningRecord{
		RecordID: id, UserID: userID, Subject: subject, Topic: topic,
		CompletedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// ── ScheduleReminders 测试 ──

func TestReminderService_ScheduleReminders_DefaultSchedule(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc, mocks := setupTestReminderService(now)

	n, err := svc.ScheduleReminders(context.Background(), "U", "E")
	if err != nil {
		t.Fatalf("ScheduleReminders 应成功: %v", err)
	}
	if n != 5 {
		t.Fatalf("期望生成 5 条提醒，实际=%d", n)
	}
	if mocks.reminder.batches != 1 {
		t.Errorf("期望单批写入，实际批次=%d", mocks.reminder.batches)
	}

	reminders, _ := mocks.reminder.ListByUserBetween(context.Background(), "U", now, now.AddDate(1, 0, 0))
	wantDates := []string{"2024-01-02", "2024-01-04", "2024-01-08", "2024-01-15", "2024-01-31"}
	if len(reminders) != len(wantDates) {
		t.Fatalf("期望 %d 条，实际=%d", len(wantDates), len(reminders))
	}
	for i, r := range reminders {
		if got := r.ScheduledAt.UTC().Format("2006-01-02"); got != wantDates[i] {
			t.Errorf("期望第 %d 条日期=%s，实际=%s", i, wantDates[i], got)
		}
		if r.Status != model.ReminderStatusPending || r.Type != model.ReminderTypeReview || r.RecordID != "E" {
			t.Errorf("提醒字段不符: %+v", r)
		}
		if !r.CreatedAt.Equal(now) || !r.UpdatedAt.Equal(now) {
			t.Errorf("created_at/updated_at 应等于同一个 now，实际=%v/%v", r.CreatedAt, r.UpdatedAt)
		}
	}
}

func TestReminderService_ScheduleReminders_CustomIntervalsSharedNow(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 30, 45, 123, time.UTC)
	svc, mocks := setupTestReminderService(now)
	seedSettings(mocks, "U", true, []int{10, 2, 5})

	n, err := svc.ScheduleReminders(context.Background(), "U", "E")
	if err != nil || n != 3 {
		t.Fatalf("期望生成 3 条，实际 n=%d err=%v", n, err)
	}
	for _, r := range mocks.reminder.reminders {
		if want := now.AddDate(0, 0, r.IntervalDays); !r.ScheduledAt.Equal(want) {
			t.Errorf("间隔 %d 期望 %v，实际=%v", r.IntervalDays, want, r.ScheduledAt)
		}
	}
}

func TestReminderService_ScheduleReminders_Disabled(t *testing.T) {
	svc, mocks := setupTestReminderService(time.Now().UTC())
	seedSettings(mocks, "U", false, []int{1, 2})

	n, err := svc.ScheduleReminders(context.Background(), "U", "E")
	if err != nil {
		t.Fatalf("关闭时不应报错: %v", err)
	}
	if n != 0 || len(mocks.reminder.reminders) != 0 || mocks.reminder.batches != 0 {
		t.Errorf("关闭时不应写入提醒，n=%d 实际条数=%d", n, len(mocks.reminder.reminders))
	}
}

func TestReminderService_ScheduleReminders_EmptyIntervalsFallBack(t *testing.T) {
	svc, mocks := setupTestReminderService(time.Now().UTC())
	seedSettings(mocks, "U", true, []int{})

	n, err := svc.ScheduleReminders(context.Background(), "U", "E")
	if err != nil {
		t.Fatalf("ScheduleReminders 应成功: %v", err)
	}
	if n != 5 {
		t.Errorf("空间隔应回退到默认 5 个，实际=%d", n)
	}
}

func TestReminderService_ScheduleReminders_StoreError(t *testing.T) {
	svc, mocks := setupTestReminderService(time.Now().UTC())
	mocks.reminder.createErr = errMockStore

	if _, err := svc.ScheduleReminders(context.Background(), "U", "E"); !errors.Is(err, errMockStore) {
		t.Errorf("期望透传存储错误，实际: %v", err)
	}
}

// ── GetPendingDueReminders 测试 ──

func TestReminderService_GetPendingDueReminders(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	svc, mocks := setupTestReminderService(now)

	seedReminder(mocks, "u1", "r1", now.Add(-time.Hour), model.ReminderStatusPending)
	seedReminder(mocks, "u2", "r2", now.Add(-48*time.Hour), model.ReminderStatusPending)
	seedReminder(mocks, "u1", "r1", now.Add(-2*time.Hour), model.ReminderStatusSent)
	seedReminder(mocks, "u1", "r1", now.Add(time.Minute), model.ReminderStatusPending)
	seedReminder(mocks, "u3", "r3", now, model.ReminderStatusPending)

	due, err := svc.GetPendingDueReminders(context.Background(), 0)
	if err != nil {
		t.Fatalf("GetPendingDueReminders 应成功: %v", err)
	}
	if len(due) != 3 {
		t.Fatalf("期望 3 条到期提醒，实际=%d", len(due))
	}
	for i, r := range due {
		if r.Status != model.ReminderStatusPending || r.ScheduledAt.After(now) {
			t.Errorf("返回了不应到期的提醒: %+v", r)
		}
		if i > 0 && r.ScheduledAt.Before(due[i-1].ScheduledAt) {
			t.Error("结果应按 scheduled_at 升序")
		}
	}

	capped, _ := svc.GetPendingDueReminders(context.Background(), 2)
	if len(capped) != 2 {
		t.Errorf("期望 limit=2 时返回 2 条，实际=%d", len(capped))
	}
}

// ── GetUserRemindersForToday 测试 ──

func TestReminderService_GetUserRemindersForToday_UTC(t *testing.T) {
	now := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)
	svc, mocks := setupTestReminderService(now)
	day := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	seedReminder(mocks, "u1", "r1", day.Add(23*time.Hour), model.ReminderStatusPending)
	seedReminder(mocks, "u1", "r1", day, model.ReminderStatusSent)
	seedReminder(mocks, "u1", "r1", day.Add(-time.Second), model.ReminderStatusPending)
	seedReminder(mocks, "u1", "r1", day.Add(24*time.Hour), model.ReminderStatusPending)
	seedReminder(mocks, "u2", "r2", day.Add(time.Hour), model.ReminderStatusPending)

	got, err := svc.GetUserRemindersForToday(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetUserRemindersForToday 应成功: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("期望今日 2 条，实际=%d", len(got))
	}
	if got[0].ScheduledAt != "2024-01-05T00:00:00Z" || got[1].ScheduledAt != "2024-01-05T23:00:00Z" {
		t.Errorf("结果不符或未升序: %s, %s", got[0].ScheduledAt, got[1].ScheduledAt)
	}
	for _, r := range got {
		if r.UserID != "u1" {
			t.Errorf("不应返回其他用户的提醒: %s", r.UserID)
		}
	}
}

func TestReminderService_GetUserRemindersForToday_ConfiguredTimezone(t *testing.T) {
	// 2024-01-05 20:00 UTC = 2024-01-06 05:00 JST
	now := time.Date(2024, 1, 5, 20, 0, 0, 0, time.UTC)
	svc, mocks := setupTestReminderService(now)
	svc.cfg.Timezone = "Asia/Tokyo"

	seedReminder(mocks, "u1", "r1", time.Date(2024, 1, 5, 15, 0, 0, 0, time.UTC), model.ReminderStatusPending) // JST 1/6 00:00
	seedReminder(mocks, "u1", "r1", time.Date(2024, 1, 5, 14, 59, 0, 0, time.UTC), model.ReminderStatusPending) // JST 1/5 23:59

	got, err := svc.GetUserRemindersForToday(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetUserRemindersForToday 应成功: %v", err)
	}
	if len(got) != 1 || got[0].ScheduledAt != "2024-01-05T15:00:00Z" {
		t.Errorf("期望只返回 JST 当天的提醒，实际=%+v", got)
	}
}

// ── UpdateStatus 测试 ──

func TestReminderService_UpdateStatus(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc, mocks := setupTestReminderService(created)
	r := seedReminder(mocks, "u1", "r1", created, model.ReminderStatusPending)

	later := created.Add(time.Hour)
	svc.now = fixedClock(later)
	if err := svc.UpdateStatus(context.Background(), r.ReminderID, model.ReminderStatusCompleted); err != nil {
		t.Fatalf("UpdateStatus 应成功: %v", err)
	}

	got := mocks.reminder.reminders[r.ReminderID]
	if got.Status != model.ReminderStatusCompleted {
		t.Errorf("期望 completed，实际=%s", got.Status)
	}
	if !got.UpdatedAt.Equal(later) {
		t.Errorf("updated_at 应前移到 %v，实际=%v", later, got.UpdatedAt)
	}
	if got.UserID != "u1" || got.RecordID != "r1" || !got.ScheduledAt.Equal(created) || !got.CreatedAt.Equal(created) {
		t.Errorf("其他字段不应变化: %+v", got)
	}

	// 不校验迁移方向，重复设置同一状态也允许
	if err := svc.UpdateStatus(context.Background(), r.ReminderID, model.ReminderStatusPending); err != nil {
		t.Errorf("completed → pending 应允许: %v", err)
	}
	if err := svc.UpdateStatus(context.Background(), r.ReminderID, model.ReminderStatusPending); err != nil {
		t.Errorf("重复设置应允许: %v", err)
	}
	if mocks.reminder.reminders[r.ReminderID].Status != model.ReminderStatusPending {
		t.Error("重复设置后状态应保持 pending")
	}
}

func TestReminderService_UpdateStatus_Errors(t *testing.T) {
	svc, mocks := setupTestReminderService(time.Now().UTC())
	r := seedReminder(mocks, "u1", "r1", time.Now().UTC(), model.ReminderStatusPending)

	if err := svc.UpdateStatus(context.Background(), "missing", model.ReminderStatusSent); !errors.Is(err, ErrReminderNotFound) {
		t.Errorf("期望 ErrReminderNotFound，实际: %v", err)
	}
	if err := svc.UpdateStatus(context.Background(), r.ReminderID, "archived"); !errors.Is(err, ErrReminderStatusInvalid) {
		t.Errorf("期望 ErrReminderStatusInvalid，实际: %v", err)
	}
	mocks.reminder.updateErr = errMockStore
	if err := svc.UpdateStatus(context.Background(), r.ReminderID, model.ReminderStatusSent); !errors.Is(err, errMockStore) {
		t.Errorf("期望透传存储错误，实际: %v", err)
	}
}

func TestReminderService_UpdateUserReminderStatus_OtherUser(t *testing.T) {
	svc, mocks := setupTestReminderService(time.Now().UTC())
	r := seedReminder(mocks, "owner", "r1", time.Now().UTC(), model.ReminderStatusPending)

	err := svc.UpdateUserReminderStatus(context.Background(), "intruder", r.ReminderID, model.ReminderStatusCompleted)
	if !errors.Is(err, ErrReminderNotFound) {
		t.Errorf("期望 ErrReminderNotFound，实际: %v", err)
	}
	if mocks.reminder.reminders[r.ReminderID].Status != model.ReminderStatusPending {
		t.Error("他人提醒状态不应被修改")
	}

	if err := svc.UpdateUserReminderStatus(context.Background(), "owner", r.ReminderID, model.ReminderStatusSent); err != nil {
		t.Errorf("本人更新应成功: %v", err)
	}
}

func TestReminderService_UpdateUserReminderStatus_MalformedID(t *testing.T) {
	svc, mocks := setupTestReminderService(time.Now().UTC())
	mocks.reminder.updateErr = errMockStore

	err := svc.UpdateUserReminderStatus(context.Background(), "owner", "abc", model.ReminderStatusSent)
	if !errors.Is(err, ErrReminderNotFound) {
		t.Errorf("非法 id 期望 ErrReminderNotFound，实际: %v", err)
	}
}

// ── PrepareNotification 测试 ──

func TestReminderService_PrepareNotification(t *testing.T) {
	svc, mocks := setupTestReminderService(time.Now().UTC())
	seedRecord(mocks, "r1", "u1", "数学", "二次関数")
	r := seedReminder(mocks, "u1", "r1", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), model.ReminderStatusPending)

	payload, err := svc.PrepareNotification(context.Background(), r)
	if err != nil {
		t.Fatalf("PrepareNotification 应成功: %v", err)
	}
	if payload.Body != "数学: 二次関数 の復習時間です" {
		t.Errorf("通知正文不符，实际=%q", payload.Body)
	}
	if payload.Title == "" {
		t.Error("通知标题不应为空")
	}
	if payload.Data["reminder_id"] != r.ReminderID || payload.Data["record_id"] != "r1" {
		t.Errorf("data 字段不符: %v", payload.Data)
	}
}

func TestReminderService_PrepareNotification_MissingRecord(t *testing.T) {
	svc, mocks := setupTestReminderService(time.Now().UTC())
	r := seedReminder(mocks, "u1", "gone", time.Now().UTC(), model.ReminderStatusPending)

	_, err := svc.PrepareNotification(context.Background(), r)
	if !errors.Is(err, ErrReferencedRecordNotFound) {
		t.Errorf("期望 ErrReferencedRecordNotFound，实际: %v", err)
	}

	mocks.record.getErr = errMockStore
	if _, err := svc.PrepareNotification(context.Background(), r); errors.Is(err, ErrReferencedRecordNotFound) || err == nil {
		t.Errorf("存储错误不应被当作记录不存在，实际: %v", err)
	}
}
