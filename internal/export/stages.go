package export

import (
	"context"
	"time"

	"git.home.luguber.info/inful/docsite/internal/eventstore"
	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
)

// StageName identifies a build stage.
type StageName string

// Stages in execution order.
const (
	StageValidate      StageName = "validate"
	StageDiscover      StageName = "discover"
	StagePrepareOutput StageName = "prepare_output"
	StageRenderPages   StageName = "render_pages"
	StageThemeAssets   StageName = "copy_theme_assets"
	StagePublicAssets  StageName = "copy_public_assets"
	StageNotFound      StageName = "not_found_page"
	StageFinalize      StageName = "finalize"
)

// Stage is one step of the export pipeline.
type Stage func(ctx context.Context, bs *buildState) error

// StageDef pairs a stage name with its function.
type StageDef struct {
	Name StageName
	Fn   Stage
}

func defaultStages() []StageDef {
	return []StageDef{
		{StageValidate, stageValidate},
		{StageDiscover, stageDiscover},
		{StagePrepareOutput, stagePrepareOutput},
		{StageRenderPages, stageRenderPages},
		{StageThemeAssets, stageThemeAssets},
		{StagePublicAssets, stagePublicAssets},
		{StageNotFound, stageNotFound},
		{StageFinalize, stageFinalize},
	}
}

// runStages executes stages in order, recording timing and stopping on the first error.
func runStages(ctx context.Context, bs *buildState, stages []StageDef) error {
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			bs.b.recorder.IncStageResult(string(st.Name), metrics.ResultCanceled)
			bs.report.FailedStage = st.Name
			return err
		}

		t0 := time.Now()
		err := st.Fn(ctx, bs)
		dur := time.Since(t0)
		bs.report.StageDurations[st.Name] = dur
		bs.b.recorder.ObserveStageDuration(string(st.Name), dur)

		if err != nil {
			result := metrics.ResultFatal
			if isCanceled(err) {
				result = metrics.ResultCanceled
			}
			bs.b.recorder.IncStageResult(string(st.Name), result)
			bs.report.FailedStage = st.Name
			return stageError(st.Name, err)
		}

		bs.b.recorder.IncStageResult(string(st.Name), metrics.ResultSuccess)
		bs.b.record(ctx, bs.report.BuildID, eventstore.TypeStageCompleted,
			eventstore.StageCompleted{Stage: string(st.Name), DurationMS: dur.Milliseconds()})
		bs.logger.Debug("Stage complete", logfields.Stage(string(st.Name)),
			logfields.DurationMS(float64(dur.Microseconds())/1000))
	}
	return nil
}

// stageError annotates err with the stage name. Context errors pass through unchanged.
func stageError(stage StageName, err error) error {
	if isCanceled(err) {
		return err
	}
	if ce, ok := derrors.AsClassified(err); ok {
		return ce.WithContext("stage", string(stage))
	}
	return derrors.WrapError(err, derrors.CategoryBuild, "stage failed").
		WithContext("stage", string(stage)).Build()
}
