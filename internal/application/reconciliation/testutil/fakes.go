// Package testutil provides in-memory collaborators for reconciliation tests.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/orris-inc/paysync/internal/domain/entitlement"
	"github.com/orris-inc/paysync/internal/domain/notification"
	"github.com/orris-inc/paysync/internal/domain/plan"
	"github.com/orris-inc/paysync/internal/shared/logger"
)

// NewDiscardLogger returns a logger that drops everything.
func NewDiscardLogger() logger.Interface {
	return logger.NewLoggerWithSlog(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type storedEntitlement struct {
	id, userID, planID   uint
	state                entitlement.State
	createdAt, updatedAt time.Time
	version              int
}

// EntitlementRepository is an in-memory entitlement.Repository with the same
// optimistic version check as the gorm implementation.
type EntitlementRepository struct {
	mu      sync.Mutex
	rows    map[uint]*storedEntitlement
	nextID  uint
	updates int

	// GetErr and UpdateErr force failures when set.
	GetErr    error
	UpdateErr error
	// BeforeUpdate runs inside Update before the version check, once per call.
	BeforeUpdate func(id uint)
}

func NewEntitlementRepository() *EntitlementRepository {
	return &EntitlementRepository{rows: make(map[uint]*storedEntitlement), nextID: 1}
}

// Seed stores an entitlement with the given id and state at version 1.
func (r *EntitlementRepository) Seed(id, userID, planID uint, state entitlement.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	r.rows[id] = &storedEntitlement{
		id: id, userID: userID, planID: planID,
		state: copyState(state), createdAt: now, updatedAt: now, version: 1,
	}
	if id >= r.nextID {
		r.nextID = id + 1
	}
}

// Updates returns the number of successful updates.
func (r *EntitlementRepository) Updates() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updates
}

// Snapshot returns the stored entitlement without going through GetByID.
func (r *EntitlementRepository) Snapshot(id uint) (*entitlement.Entitlement, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, false
	}
	return toEntity(row), true
}

// BumpVersion simulates a concurrent writer committing in between.
func (r *EntitlementRepository) BumpVersion(id uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok := r.rows[id]; ok {
		row.version++
	}
}

func (r *EntitlementRepository) GetByID(ctx context.Context, id uint) (*entitlement.Entitlement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.GetErr != nil {
		return nil, r.GetErr
	}
	row, ok := r.rows[id]
	if !ok {
		return nil, entitlement.ErrEntitlementNotFound
	}
	return toEntity(row), nil
}

func (r *EntitlementRepository) GetOrCreate(ctx context.Context, userID, planID uint) (*entitlement.Entitlement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.userID == userID && row.planID == planID {
			return toEntity(row), nil
		}
	}
	ent, err := entitlement.NewEntitlement(userID, planID)
	if err != nil {
		return nil, err
	}
	id := r.nextID
	r.nextID++
	if err := ent.SetID(id); err != nil {
		return nil, err
	}
	r.rows[id] = &storedEntitlement{
		id: id, userID: userID, planID: planID, state: ent.State(),
		createdAt: ent.CreatedAt(), updatedAt: ent.UpdatedAt(), version: ent.Version(),
	}
	return ent, nil
}

func (r *EntitlementRepository) Update(ctx context.Context, e *entitlement.Entitlement) error {
	if r.BeforeUpdate != nil {
		r.BeforeUpdate(e.ID())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.UpdateErr != nil {
		return r.UpdateErr
	}
	row, ok := r.rows[e.ID()]
	if !ok || row.version != e.Version()-1 {
		return entitlement.ErrConcurrentModification
	}
	row.state = e.State()
	row.updatedAt = e.UpdatedAt()
	row.version = e.Version()
	r.updates++
	return nil
}

func (r *EntitlementRepository) ListWithPreapproval(ctx context.Context, statuses []entitlement.Status, afterID uint, limit int) ([]*entitlement.Entitlement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]uint, 0, len(r.rows))
	for id := range r.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []*entitlement.Entitlement
	for _, id := range ids {
		row := r.rows[id]
		if id <= afterID || row.state.RemotePreapprovalID == "" || !containsStatus(statuses, row.state.Status) {
			continue
		}
		out = append(out, toEntity(row))
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func containsStatus(statuses []entitlement.Status, s entitlement.Status) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func copyState(s entitlement.State) entitlement.State {
	if s.ExpiresAt != nil {
		t := *s.ExpiresAt
		s.ExpiresAt = &t
	}
	return s
}

func toEntity(row *storedEntitlement) *entitlement.Entitlement {
	ent, err := entitlement.ReconstructEntitlement(row.id, row.userID, row.planID, copyState(row.state), row.createdAt, row.updatedAt, row.version)
	if err != nil {
		panic(err)
	}
	return ent
}

// PlanRepository is an in-memory plan.Repository.
type PlanRepository struct {
	plans map[uint]*plan.Plan
}

func NewPlanRepository(plans ...*plan.Plan) *PlanRepository {
	r := &PlanRepository{plans: make(map[uint]*plan.Plan)}
	for _, p := range plans {
		r.plans[p.ID()] = p
	}
	return r
}

func (r *PlanRepository) GetByID(ctx context.Context, id uint) (*plan.Plan, error) {
	p, ok := r.plans[id]
	if !ok {
		return nil, plan.ErrPlanNotFound
	}
	return p, nil
}

func (r *PlanRepository) GetByCode(ctx context.Context, code string) (*plan.Plan, error) {
	for _, p := range r.plans {
		if p.Code() == code {
			return p, nil
		}
	}
	return nil, plan.ErrPlanNotFound
}

// LogRepository records notification logs in memory.
type LogRepository struct {
	mu   sync.Mutex
	Logs []*notification.Log
	Err  error
}

func (r *LogRepository) Create(ctx context.Context, log *notification.Log) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Logs = append(r.Logs, log)
	return nil
}

func (r *LogRepository) ListByEntitlement(ctx context.Context, entitlementID uint, limit int) ([]*notification.Log, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*notification.Log
	for i := len(r.Logs) - 1; i >= 0 && len(out) < limit; i-- {
		if id := r.Logs[i].EntitlementID; id != nil && *id == entitlementID {
			out = append(out, r.Logs[i])
		}
	}
	return out, nil
}

// Last returns the most recent log entry.
func (r *LogRepository) Last() *notification.Log {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Logs) == 0 {
		return nil
	}
	return r.Logs[len(r.Logs)-1]
}

// Locker is a per-key mutex locker.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
	Err   error
}

func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*sync.Mutex)}
}

func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	if l.Err != nil {
		return nil, l.Err
	}
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock, nil
}

// Clock is a manual clock that records requested sleeps without blocking.
type Clock struct {
	mu     sync.Mutex
	now    time.Time
	Sleeps []time.Duration
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Sleeps = append(c.Sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

// Advance moves the clock forward.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
