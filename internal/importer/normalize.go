package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"paysheet/internal/model"
	"paysheet/internal/parser"
	"paysheet/internal/payroll"
	"paysheet/internal/reader"
	"paysheet/internal/sink"
)

// NormalizeOptions 规范化选项
type NormalizeOptions struct {
	FilePath string
	// Filename 原始上传文件名，为空时取 FilePath 的文件名
	Filename string
	// Strict 为 true 时即使配置关闭也收集未解析字段
	Strict bool
}

// Normalize 异步执行规范化，返回进度通道
func (c *Coordinator) Normalize(ctx context.Context, opts NormalizeOptions) <-chan ProgressEvent {
	return c.stream(ctx, func(ctx context.Context, emit emitter) (*Report, error) {
		return c.normalize(ctx, opts, emit)
	})
}

// RunNormalize 同步执行规范化
func (c *Coordinator) RunNormalize(ctx context.Context, opts NormalizeOptions) (*Report, error) {
	return c.normalize(ctx, opts, nil)
}

func (c *Coordinator) normalize(ctx context.Context, opts NormalizeOptions, emit emitter) (*Report, error) {
	start := time.Now()
	filename := displayName(opts.Filename, opts.FilePath)

	run, err := c.newRun(model.RunKindNormalize, filename)
	if err != nil {
		return nil, err
	}
	log := c.logger.With(zap.String("run_id", run.ID), zap.String("file", filename))

	emit.send("start", "开始处理员工表", map[string]string{"filename": filename, "runId": run.ID})

	report, err := c.doNormalize(ctx, run, opts, emit, log)
	if report != nil {
		report.Duration = time.Since(start)
	}
	c.finishRun(run, report, err)
	if err != nil {
		log.Error("normalize failed", zap.Error(err))
		return nil, err
	}

	log.Info("normalize done",
		zap.String("sheet", report.SheetName),
		zap.Int("rows", report.Rows),
		zap.Int("unresolved", len(report.Unresolved)),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

func (c *Coordinator) doNormalize(ctx context.Context, run *model.Run, opts NormalizeOptions, emit emitter, log *zap.Logger) (*Report, error) {
	wb, err := reader.Open(opts.FilePath, log)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	if len(wb.SheetNames()) == 0 {
		return nil, reader.ErrNoSheets
	}

	roles := parser.ResolveRoles(wb.Recognize(c.recognizer), c.settings.Preferred)
	if roles.Roster == "" || roles.Salary == "" {
		return nil, fmt.Errorf("%d sheet(s) found: %w", len(wb.SheetNames()), ErrNotEnoughSheets)
	}
	emit.send("info", fmt.Sprintf("花名册: %s, 薪资表: %s", roles.Roster, roles.Salary), roles)

	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	roster, err := wb.ReadSheet(roles.Roster, c.settings.HeaderMode)
	if err != nil {
		return nil, err
	}
	// 透视表依赖表头 key（组件列由 key 识别）
	salary, err := wb.ReadSheet(roles.Salary, reader.Keyed)
	if err != nil {
		return nil, err
	}

	table := parser.ParsePivot(salary, c.settings.ComponentMarker)
	emit.send("sheet_done", fmt.Sprintf("薪资表解析完成: %d 个类别", table.Len()), map[string]any{
		"sheet_name": roles.Salary,
		"categories": table.Categories(),
	})

	var header parser.RawRow
	if len(roster) > 0 {
		header = roster[0]
	}
	hm := parser.NewSchemaReconciler(c.schema).Reconcile(header)
	markers := parser.LocateByMarker(header, c.settings.DaysMarker)
	if !markers.Found() {
		emit.send("warning", fmt.Sprintf("未找到标记列 %q，出勤天数按 0 处理", c.settings.DaysMarker), nil)
	}

	projector := payroll.NewProjector(c.schema, c.normalizer(), payroll.Options{Strict: c.settings.Strict || opts.Strict})
	projection := projector.Project(roster, hm, table, markers)
	emit.send("sheet_done", fmt.Sprintf("花名册映射完成: %d 行", len(projection.Rows)), map[string]any{
		"sheet_name": roles.Roster,
		"rows":       len(projection.Rows),
		"resolved":   hm.Resolved(),
		"unresolved": len(projection.Unresolved),
		"marker":     markers.MarkerIndex,
		"preceding":  markers.PrecedingIndex,
	})

	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	outputPath, err := c.writeNormalized(run.SheetName, projection.Rows, log)
	if err != nil {
		return nil, err
	}
	emit.send("info", fmt.Sprintf("已写入 %s", run.SheetName), map[string]string{"sheet_name": run.SheetName})

	return &Report{
		RunID:      run.ID,
		Kind:       run.Kind,
		Filename:   run.Filename,
		SheetName:  run.SheetName,
		OutputPath: outputPath,
		Roles:      roles,
		Rows:       len(projection.Rows),
		Unresolved: projection.Unresolved,
	}, nil
}

// writeNormalized 复制 master → 写表头与数据 → 下拉公式 → 自适应列宽 → 保存
func (c *Coordinator) writeNormalized(sheetName string, rows []model.CanonicalRow, log *zap.Logger) (string, error) {
	out, err := sink.NewExcelSink(sink.Options{
		TemplatePath: c.settings.TemplatePath,
		MasterSheet:  c.settings.MasterSheet,
		Header:       c.schema.Header(),
		Logger:       log,
	})
	if err != nil {
		return "", err
	}
	defer out.Close()

	if err := out.DuplicateTemplate(sheetName); err != nil {
		return "", err
	}

	values := make([][]any, 0, len(rows)+1)
	values = append(values, c.schema.Header())
	for _, r := range rows {
		values = append(values, []any(r))
	}
	if err := out.WriteRows(sheetName, "A1", values); err != nil {
		return "", err
	}

	if len(rows) > 0 {
		lastRow := len(rows) + 1
		if lastRow >= c.settings.FormulaSourceRow {
			if _, err := out.CopyFormulasDown(sheetName, c.settings.FormulaSourceRow, c.settings.FormulaStartCol, c.settings.FormulaEndCol, lastRow); err != nil {
				return "", err
			}
		}
	}
	if err := out.AutoResizeColumns(sheetName); err != nil {
		return "", err
	}

	return c.save(out, sheetName)
}

func (c *Coordinator) save(out sink.Sink, sheetName string) (string, error) {
	if err := os.MkdirAll(c.settings.ExportDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(c.settings.ExportDir, sheetName+".xlsx")
	if err := out.SaveAs(path); err != nil {
		return "", err
	}
	return path, nil
}
