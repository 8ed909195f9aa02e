package biz

import (
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/biz/repo"
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/biz/usecase"
)

// Usecases contains all usecases
type Usecases struct {
	Classify   *usecase.ClassifyUsecase
	Moderation *usecase.ModerationUsecase
}

// NewUsecases wires the usecase layer. ledgerRepo may be nil.
func NewUsecases(
	historyRepo repo.HistoryRepo,
	classifierRepo repo.ClassifierRepo,
	platformRepo repo.PlatformRepo,
	ledgerRepo repo.LedgerRepo,
	classifyCfg usecase.ClassifyConfig,
	moderationCfg usecase.ModerationConfig,
) *Usecases {
	classifyUC := usecase.NewClassifyUsecase(classifierRepo, classifyCfg)
	return &Usecases{
		Classify:   classifyUC,
		Moderation: usecase.NewModerationUsecase(historyRepo, platformRepo, ledgerRepo, classifyUC, moderationCfg),
	}
}
