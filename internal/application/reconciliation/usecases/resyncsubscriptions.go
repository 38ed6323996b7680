package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/orris-inc/paysync/internal/application/reconciliation"
	"github.com/orris-inc/paysync/internal/domain/entitlement"
	"github.com/orris-inc/paysync/internal/domain/notification"
	"github.com/orris-inc/paysync/internal/shared/logger"
)

const defaultResyncBatchSize = 200

// resyncStatuses are the statuses whose subscription may have changed
// without a delivered notification.
var resyncStatuses = []entitlement.Status{entitlement.StatusActive, entitlement.StatusPastDue}

// ResyncSummary reports one resync run.
type ResyncSummary struct {
	Checked int
	Updated int
	Failed  int
}

// ResyncSubscriptionsUseCase re-reads the preapproval of every subscribed
// entitlement and feeds it through the same reduce and commit path as a
// notification, recovering from missed webhooks.
type ResyncSubscriptionsUseCase struct {
	entitlementRepo entitlement.Repository
	resolver        *reconciliation.Resolver
	committer       *reconciliation.Committer
	batchSize       int
	logger          logger.Interface
}

func NewResyncSubscriptionsUseCase(
	entitlementRepo entitlement.Repository,
	resolver *reconciliation.Resolver,
	committer *reconciliation.Committer,
	batchSize int,
	logger logger.Interface,
) *ResyncSubscriptionsUseCase {
	if batchSize <= 0 {
		batchSize = defaultResyncBatchSize
	}
	return &ResyncSubscriptionsUseCase{
		entitlementRepo: entitlementRepo,
		resolver:        resolver,
		committer:       committer,
		batchSize:       batchSize,
		logger:          logger,
	}
}

// Execute walks subscribed entitlements in id order. A failure on one
// entitlement is logged and counted; only listing errors abort the run.
func (uc *ResyncSubscriptionsUseCase) Execute(ctx context.Context) (*ResyncSummary, error) {
	summary := &ResyncSummary{}
	var afterID uint

	for {
		batch, err := uc.entitlementRepo.ListWithPreapproval(ctx, resyncStatuses, afterID, uc.batchSize)
		if err != nil {
			return summary, fmt.Errorf("failed to list subscribed entitlements: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		for _, ent := range batch {
			if err := ctx.Err(); err != nil {
				return summary, err
			}
			afterID = ent.ID()
			summary.Checked++

			updated, err := uc.resyncOne(ctx, ent)
			if err != nil {
				summary.Failed++
				uc.logger.Warnw("failed to resync entitlement",
					"entitlement_id", ent.ID(),
					"preapproval_id", ent.RemotePreapprovalID(),
					"error", err,
				)
				continue
			}
			if updated {
				summary.Updated++
			}
		}

		if len(batch) < uc.batchSize {
			break
		}
	}

	uc.logger.Infow("subscription resync completed",
		"checked", summary.Checked,
		"updated", summary.Updated,
		"failed", summary.Failed,
	)
	return summary, nil
}

func (uc *ResyncSubscriptionsUseCase) resyncOne(ctx context.Context, ent *entitlement.Entitlement) (bool, error) {
	event := notification.PreapprovalEvent{PreapprovalID: ent.RemotePreapprovalID()}

	res, err := uc.resolver.Resolve(ctx, event)
	if err != nil {
		return false, err
	}

	commit, err := uc.committer.Apply(ctx, ent.ID(), res)
	if err != nil {
		if errors.Is(err, entitlement.ErrEntitlementNotFound) {
			return false, nil
		}
		return false, err
	}

	if commit.Transition.Changed {
		uc.logger.Infow("entitlement updated by resync",
			"entitlement_id", ent.ID(),
			"status", commit.Entitlement.Status(),
			"remote_status", res.RemoteStatus(),
		)
	}
	return commit.Transition.Changed, nil
}
