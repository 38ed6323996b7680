package http

import (
	"github.com/orris-inc/paysync/internal/application/reconciliation"
	"github.com/orris-inc/paysync/internal/application/reconciliation/usecases"
)

// allUseCases holds all use case instances used by the application.
type allUseCases struct {
	handleNotificationUC   *usecases.HandleNotificationUseCase
	getEntitlementAccessUC *usecases.GetEntitlementAccessUseCase
	prepareEntitlementUC   *usecases.PrepareEntitlementUseCase
	resyncSubscriptionsUC  *usecases.ResyncSubscriptionsUseCase
}

func (c *Container) initUseCases() {
	recCfg := c.cfg.Reconciliation
	gwCfg := c.cfg.Gateway

	verifier := reconciliation.NewSignatureVerifier(reconciliation.VerifierConfig{
		Secret:        gwCfg.WebhookSecret,
		AllowUnsigned: gwCfg.AllowUnsigned,
		Tolerance:     gwCfg.SignatureTolerance,
	}, nil, c.log)
	if !verifier.Enabled() {
		c.log.Warnw("webhook secret not configured, notifications are accepted unsigned")
	}

	resolver := reconciliation.NewResolver(c.gatewayAPI, reconciliation.RetryPolicy{
		MaxAttempts: recCfg.PollAttempts,
		BaseDelay:   recCfg.PollBaseDelay,
		Factor:      recCfg.PollFactor,
	}, nil, c.log)

	committer := reconciliation.NewCommitter(
		c.repos.entitlementRepo,
		c.repos.planRepo,
		c.locker,
		nil,
		recCfg.CommitRetries,
		c.log,
	)

	handleNotificationUC := usecases.NewHandleNotificationUseCase(verifier, resolver, committer, c.log)
	handleNotificationUC.SetLogRepository(c.repos.notificationLogRepo)

	c.ucs = &allUseCases{
		handleNotificationUC:   handleNotificationUC,
		getEntitlementAccessUC: usecases.NewGetEntitlementAccessUseCase(c.repos.entitlementRepo, c.log),
		prepareEntitlementUC:   usecases.NewPrepareEntitlementUseCase(c.repos.entitlementRepo, c.repos.planRepo, c.log),
		resyncSubscriptionsUC: usecases.NewResyncSubscriptionsUseCase(
			c.repos.entitlementRepo,
			resolver,
			committer,
			recCfg.ResyncBatch,
			c.log,
		),
	}
}
