package importer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"paysheet/internal/formula"
	"paysheet/internal/model"
	"paysheet/internal/parser"
	"paysheet/internal/reader"
	"paysheet/internal/sink"
	"paysheet/internal/store"
)

// ErrNotEnoughSheets 上传的工作簿缺少花名册或薪资表
var ErrNotEnoughSheets = errors.New("workbook needs a roster sheet and a salary sheet")

// ErrNoTemplate 复制公式需要模板工作簿
var ErrNoTemplate = errors.New("no formula template workbook")

// Settings 处理参数（由配置构建）
type Settings struct {
	ComponentMarker string
	DaysMarker      string
	Strict          bool
	Preferred       parser.PreferredSheets
	HeaderMode      reader.HeaderMode
	Aliases         parser.AliasRules

	TemplatePath     string
	MasterSheet      string
	SheetPrefix      string
	FormulaSourceRow int
	FormulaStartCol  string
	FormulaEndCol    string
	Policy           formula.Policy

	// ExportDir 输出工作簿目录
	ExportDir string
}

func (s Settings) withDefaults() Settings {
	if s.ComponentMarker == "" {
		s.ComponentMarker = parser.DefaultComponentMarker
	}
	if s.DaysMarker == "" {
		s.DaysMarker = parser.DefaultDaysMarker
	}
	if s.MasterSheet == "" {
		s.MasterSheet = "master"
	}
	if s.SheetPrefix == "" {
		s.SheetPrefix = "EmpDetails"
	}
	if s.FormulaSourceRow <= 0 {
		s.FormulaSourceRow = 2
	}
	if s.FormulaStartCol == "" {
		s.FormulaStartCol = "D"
	}
	if s.FormulaEndCol == "" {
		s.FormulaEndCol = "I"
	}
	if s.ExportDir == "" {
		s.ExportDir = filepath.Join("data", "exports")
	}
	return s
}

// Coordinator 处理协调器
type Coordinator struct {
	store      *store.Store
	settings   Settings
	schema     model.CanonicalSchema
	recognizer *parser.SheetRecognizer
	logger     *zap.Logger
}

// NewCoordinator 创建协调器，store 可为 nil（不记录运行日志）
func NewCoordinator(st *store.Store, settings Settings, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	settings = settings.withDefaults()
	return &Coordinator{
		store:      st,
		settings:   settings,
		schema:     model.PayrollSchema,
		recognizer: parser.NewSheetRecognizer(settings.ComponentMarker, settings.DaysMarker),
		logger:     logger,
	}
}

// Settings 当前参数
func (c *Coordinator) Settings() Settings {
	return c.settings
}

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string    `json:"type"`    // start/info/sheet_done/warning/done/error
	Message   string    `json:"message"` // 事件消息
	Data      any       `json:"data"`    // 附加数据
	Timestamp time.Time `json:"timestamp"`
}

// Report 一次处理的结果
type Report struct {
	RunID      string             `json:"runId"`
	Kind       model.RunKind      `json:"kind"`
	Filename   string             `json:"filename"`
	SheetName  string             `json:"sheetName"`
	OutputPath string             `json:"outputPath"`
	Roles      model.SheetRoles   `json:"roles"`
	Rows       int                `json:"rows"`
	Unresolved []model.Unresolved `json:"unresolved,omitempty"`
	Duration   time.Duration      `json:"duration"`
}

// emitter 进度回调；为 nil 时不发送
type emitter func(ProgressEvent)

func (e emitter) send(typ, msg string, data any) {
	if e == nil {
		return
	}
	e(ProgressEvent{Type: typ, Message: msg, Data: data, Timestamp: time.Now()})
}

// stream 在后台执行 fn，把进度与最终结果（done/error）写入通道
func (c *Coordinator) stream(ctx context.Context, fn func(context.Context, emitter) (*Report, error)) <-chan ProgressEvent {
	progressChan := make(chan ProgressEvent, 100)

	go func() {
		defer close(progressChan)

		report, err := fn(ctx, func(evt ProgressEvent) {
			select {
			case progressChan <- evt:
			default:
				// 通道已满，丢弃中间事件
			}
		})

		final := ProgressEvent{Type: "done", Message: "处理完成", Data: report, Timestamp: time.Now()}
		if err != nil {
			final = ProgressEvent{Type: "error", Message: err.Error(), Timestamp: time.Now()}
		}
		select {
		case progressChan <- final:
		case <-ctx.Done():
		}
	}()

	return progressChan
}

// newRun 生成请求级运行标识与输出 sheet 名
func (c *Coordinator) newRun(kind model.RunKind, filename string) (*model.Run, error) {
	id := uuid.New()
	run := &model.Run{
		ID:        id.String(),
		Kind:      kind,
		Filename:  filename,
		SheetName: sink.SheetName(c.settings.SheetPrefix, id),
		Status:    model.RunStatusProcessing,
	}
	if c.store != nil {
		if err := c.store.CreateRun(run); err != nil {
			return nil, err
		}
	}
	return run, nil
}

func (c *Coordinator) finishRun(run *model.Run, report *Report, err error) {
	if c.store == nil {
		return
	}
	var storeErr error
	if err != nil {
		storeErr = c.store.FailRun(run.ID, err)
	} else {
		storeErr = c.store.CompleteRun(run.ID, report.SheetName, report.OutputPath, report.Rows, len(report.Unresolved))
	}
	if storeErr != nil {
		c.logger.Warn("record run failed", zap.String("run_id", run.ID), zap.Error(storeErr))
	}
}

// normalizer 内置别名 + 配置文件别名 + 运行期别名（后者覆盖前者）
func (c *Coordinator) normalizer() *parser.DesignationNormalizer {
	rules := parser.DefaultAliasRules().Merge(c.settings.Aliases)
	if c.store != nil {
		extra, err := c.store.ListAliases()
		if err != nil {
			c.logger.Warn("load aliases failed", zap.Error(err))
		} else {
			rules = rules.Merge(parser.AliasRules(extra))
		}
	}
	return parser.NewDesignationNormalizer(rules)
}

func displayName(filename, path string) string {
	if strings.TrimSpace(filename) != "" {
		return filename
	}
	return filepath.Base(path)
}

func checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("cancelled: %w", err)
	}
	return nil
}
