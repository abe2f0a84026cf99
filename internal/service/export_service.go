package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"manabi/backend/config"
	"manabi/backend/internal/model"
	"manabi/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportRangeInvalid = errors.New("日期区间无效")
	ErrExportNoReminders  = errors.New("所选区间内没有复习提醒")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

const (
	maxExportRangeDays     = 366
	calendarEventDuration  = 30 * time.Minute
	calendarProductID      = "-//manabi//review reminders//JA"
	exportDateLayout       = "2006-01-02"
	exportDateTimeLayout   = "2006-01-02 15:04"
	exportSheetName        = "復習リマインダー"
	exportMissingRecordTag = "(削除済み)"
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 区间按配置时区解析，from/to 均含当天
//   - Excel 以 bytes.Buffer 返回，由 Handler 层设置下载响应头
//   - 日历为 iCalendar 文本，每条提醒一个 30 分钟的 VEVENT
type ExportService interface {
	// ExportReminders 导出区间内的提醒为 Excel
	ExportReminders(ctx context.Context, userID, from, to string) (*bytes.Buffer, string, error)
	// ReminderCalendar 生成区间内提醒的 iCalendar 订阅内容
	ReminderCalendar(ctx context.Context, userID, from, to string) (string, error)
}

type exportService struct {
	repo   *repository.Repository
	cfg    *config.ReminderConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(cfg *config.ReminderConfig, repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{
		repo:   repo,
		cfg:    cfg,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// exportRow 一行导出数据
type exportRow struct {
	reminder model.Reminder
	record   *model.LearningRecord
}

// ═══════════════════════════════════════════════════════════
// ExportReminders: 导出为 Excel
// ═══════════════════════════════════════════════════════════
//
// 列：予定日時 | 科目 | トピック | 間隔(日) | 状態

func (s *exportService) ExportReminders(ctx context.Context, userID, from, to string) (*bytes.Buffer, string, error) {
	rows, err := s.loadRows(ctx, userID, from, to)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(exportSheetName)
	if err != nil {
		s.logger.Error("创建 Sheet 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(exportSheetName, "A", "A", 18)
	f.SetColWidth(exportSheetName, "B", "B", 16)
	f.SetColWidth(exportSheetName, "C", "C", 32)
	f.SetColWidth(exportSheetName, "D", "E", 12)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	header := []interface{}{"予定日時", "科目", "トピック", "間隔(日)", "状態"}
	f.SetSheetRow(exportSheetName, "A1", &header)
	f.SetCellStyle(exportSheetName, "A1", "E1", headerStyle)

	loc := s.cfg.Location()
	for i, r := range rows {
		subject, topic := exportMissingRecordTag, exportMissingRecordTag
		if r.record != nil {
			subject, topic = r.record.Subject, r.record.Topic
		}
		line := []interface{}{
			r.reminder.ScheduledAt.In(loc).Format(exportDateTimeLayout),
			subject,
			topic,
			r.reminder.IntervalDays,
			r.reminder.Status,
		}
		f.SetSheetRow(exportSheetName, cell("A", i+2), &line)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("reminders_%s_%s.xlsx", from, to)
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ReminderCalendar: 生成 iCalendar
// ═══════════════════════════════════════════════════════════

func (s *exportService) ReminderCalendar(ctx context.Context, userID, from, to string) (string, error) {
	rows, err := s.loadRows(ctx, userID, from, to)
	if err != nil && !errors.Is(err, ErrExportNoReminders) {
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)

	stamp := s.now()
	for _, r := range rows {
		event := cal.AddEvent(r.reminder.ReminderID + "@manabi")
		event.SetDtStampTime(stamp)
		event.SetCreatedTime(r.reminder.CreatedAt)
		event.SetModifiedAt(r.reminder.UpdatedAt)
		event.SetStartAt(r.reminder.ScheduledAt)
		event.SetEndAt(r.reminder.ScheduledAt.Add(calendarEventDuration))
		if r.record != nil {
			payload := buildPayload(&r.reminder, r.record)
			event.SetSummary(payload.Body)
			event.SetDescription(payload.Title)
		} else {
			event.SetSummary(reminderNotificationTitle)
		}
	}

	return cal.Serialize(), nil
}

// ── 内部方法 ──

// loadRows 查询区间内的提醒并补全学习记录
func (s *exportService) loadRows(ctx context.Context, userID, from, to string) ([]exportRow, error) {
	start, end, err := parseDateRange(from, to, s.cfg.Location())
	if err != nil {
		return nil, err
	}

	reminders, err := s.repo.Reminder.ListByUserBetween(ctx, userID, start, end)
	if err != nil {
		s.logger.Error("查询导出提醒失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	if len(reminders) == 0 {
		return nil, ErrExportNoReminders
	}

	ids := make([]string, 0, len(reminders))
	seen := make(map[string]bool, len(reminders))
	for _, r := range reminders {
		if !seen[r.RecordID] {
			seen[r.RecordID] = true
			ids = append(ids, r.RecordID)
		}
	}
	records, err := s.repo.LearningRecord.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("查询导出学习记录失败", zap.Error(err))
		return nil, err
	}
	byID := make(map[string]*model.LearningRecord, len(records))
	for i := range records {
		byID[records[i].RecordID] = &records[i]
	}

	rows := make([]exportRow, 0, len(reminders))
	for _, r := range reminders {
		rows = append(rows, exportRow{reminder: r, record: byID[r.RecordID]})
	}
	return rows, nil
}

// parseDateRange 解析 [from 00:00, to 23:59:59.999999999]（loc 时区）
func parseDateRange(from, to string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(exportDateLayout, from, loc)
	if err != nil {
		return time.Time{}, time.Time{}, ErrExportRangeInvalid
	}
	last, err := time.ParseInLocation(exportDateLayout, to, loc)
	if err != nil {
		return time.Time{}, time.Time{}, ErrExportRangeInvalid
	}
	if last.Before(start) || last.Sub(start) > maxExportRangeDays*24*time.Hour {
		return time.Time{}, time.Time{}, ErrExportRangeInvalid
	}
	end := last.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return start.UTC(), end.UTC(), nil
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
