package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/orris-inc/paysync/internal/application/reconciliation"
	"github.com/orris-inc/paysync/internal/domain/entitlement"
	"github.com/orris-inc/paysync/internal/domain/notification"
	"github.com/orris-inc/paysync/internal/shared/biztime"
	apperrors "github.com/orris-inc/paysync/internal/shared/errors"
	"github.com/orris-inc/paysync/internal/shared/logger"
)

// Acknowledgment warnings. These are 200 responses: the gateway must not
// redeliver events the engine cannot act on.
const (
	WarningUnrecognized        = "Unrecognized notification"
	WarningOrderWithoutPayment = "Merchant order has no payment yet"
	WarningUnmapped            = "Could not map entitlement"
	WarningNotFound            = "Entitlement not found"
)

// HandleNotificationResult is the acknowledgment of a processed notification.
type HandleNotificationResult struct {
	Kind          notification.Kind
	RemoteID      string
	RemoteStatus  string
	Ignored       bool
	Warning       string
	Idempotent    bool
	Applied       bool
	Activated     bool
	EntitlementID uint
	EntStatus     entitlement.Status
}

// HandleNotificationUseCase drives Router, Verifier, Resolver, Locator and
// the versioned commit for one inbound notification.
type HandleNotificationUseCase struct {
	verifier  *reconciliation.SignatureVerifier
	resolver  *reconciliation.Resolver
	committer *reconciliation.Committer
	logRepo   notification.LogRepository // Optional
	logger    logger.Interface
}

func NewHandleNotificationUseCase(
	verifier *reconciliation.SignatureVerifier,
	resolver *reconciliation.Resolver,
	committer *reconciliation.Committer,
	logger logger.Interface,
) *HandleNotificationUseCase {
	return &HandleNotificationUseCase{
		verifier:  verifier,
		resolver:  resolver,
		committer: committer,
		logger:    logger,
	}
}

// SetLogRepository enables the notification audit log (optional dependency injection)
func (uc *HandleNotificationUseCase) SetLogRepository(repo notification.LogRepository) {
	uc.logRepo = repo
}

// Execute processes in. Errors map to responses: signature errors are
// authentication failures, *gateway.UpstreamError is an upstream failure,
// and an internal AppError is a retryable persistence failure.
func (uc *HandleNotificationUseCase) Execute(ctx context.Context, in reconciliation.Inbound) (*HandleNotificationResult, error) {
	audit := &notification.Log{
		RequestID: in.RequestID,
		Query:     in.Query,
		Body:      in.Body,
	}

	event, err := reconciliation.Classify(in)
	if err != nil {
		uc.logger.Infow("ignoring unrecognized notification",
			"query", in.Query.Encode(),
		)
		audit.Outcome = notification.OutcomeIgnored
		uc.recordLog(ctx, audit)
		return &HandleNotificationResult{Ignored: true, Warning: WarningUnrecognized}, nil
	}

	audit.Kind = event.Kind()
	audit.RemoteID = event.RemoteID()
	result := &HandleNotificationResult{Kind: event.Kind(), RemoteID: event.RemoteID()}
	log := uc.logger.With("kind", event.Kind(), "remote_id", event.RemoteID())

	verified, err := uc.verifier.Verify(in.Signature, in.RequestID, event.RemoteID())
	if err != nil {
		log.Warnw("notification signature rejected", "error", err)
		audit.Outcome = notification.OutcomeRejected
		audit.Error = err.Error()
		uc.recordLog(ctx, audit)
		return nil, err
	}
	audit.SignatureVerified = verified

	res, err := uc.resolver.Resolve(ctx, event)
	if err != nil {
		if errors.Is(err, reconciliation.ErrOrderWithoutPayment) {
			audit.Outcome = notification.OutcomeIgnored
			uc.recordLog(ctx, audit)
			result.Ignored = true
			result.Warning = WarningOrderWithoutPayment
			return result, nil
		}
		log.Errorw("failed to resolve remote object", "error", err)
		audit.Outcome = notification.OutcomeUpstreamError
		audit.Error = err.Error()
		uc.recordLog(ctx, audit)
		return nil, err
	}
	result.RemoteStatus = res.RemoteStatus()
	audit.RemoteStatus = result.RemoteStatus

	entitlementID, ok := res.EntitlementID()
	if !ok {
		log.Warnw("notification does not reference an entitlement",
			"remote_status", result.RemoteStatus,
		)
		audit.Outcome = notification.OutcomeUnmapped
		uc.recordLog(ctx, audit)
		result.Warning = WarningUnmapped
		return result, nil
	}
	result.EntitlementID = entitlementID
	audit.EntitlementID = &entitlementID
	log = log.With("entitlement_id", entitlementID)

	commit, err := uc.committer.Apply(ctx, entitlementID, res)
	if err != nil {
		if errors.Is(err, entitlement.ErrEntitlementNotFound) {
			log.Warnw("notification references unknown entitlement")
			audit.Outcome = notification.OutcomeUnmapped
			uc.recordLog(ctx, audit)
			result.Warning = WarningNotFound
			return result, nil
		}
		log.Errorw("failed to commit entitlement", "error", err)
		audit.Outcome = notification.OutcomePersistenceError
		audit.Error = err.Error()
		uc.recordLog(ctx, audit)
		return nil, apperrors.NewInternalError("failed to commit entitlement", err.Error())
	}

	tr := commit.Transition
	result.EntStatus = commit.Entitlement.Status()
	result.Applied = tr.Changed
	result.Idempotent = !tr.Changed
	result.Activated = tr.Activated && tr.Changed
	audit.EntitlementStatus = result.EntStatus.String()

	if tr.Changed {
		audit.Outcome = notification.OutcomeApplied
		log.Infow("entitlement updated",
			"status", result.EntStatus,
			"remote_status", result.RemoteStatus,
			"version", commit.Entitlement.Version(),
		)
	} else {
		audit.Outcome = notification.OutcomeIdempotent
		log.Infow("notification already applied",
			"status", result.EntStatus,
			"remote_status", result.RemoteStatus,
		)
	}
	uc.recordLog(ctx, audit)

	return result, nil
}

// recordLog writes the audit record. Failures never change the response.
func (uc *HandleNotificationUseCase) recordLog(ctx context.Context, entry *notification.Log) {
	if uc.logRepo == nil {
		return
	}
	entry.CreatedAt = biztime.NowUTC()
	if err := uc.logRepo.Create(context.WithoutCancel(ctx), entry); err != nil {
		uc.logger.Warnw("failed to write notification log",
			"kind", entry.Kind,
			"remote_id", entry.RemoteID,
			"error", fmt.Errorf("notification log: %w", err),
		)
	}
}
