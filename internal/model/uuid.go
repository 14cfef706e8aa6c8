package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IDs are generated application-side so the same models run on Postgres in
// production and sqlite in tests.

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (u *User) BeforeCreate(*gorm.DB) error          { ensureID(&u.ID); return nil }
func (t *RefreshToken) BeforeCreate(*gorm.DB) error  { ensureID(&t.ID); return nil }
func (r *Role) BeforeCreate(*gorm.DB) error          { ensureID(&r.ID); return nil }
func (p *Permission) BeforeCreate(*gorm.DB) error    { ensureID(&p.ID); return nil }
func (r *FundraisingRequest) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
func (r *RequestReview) BeforeCreate(*gorm.DB) error    { ensureID(&r.ID); return nil }
func (d *ApprovalDecision) BeforeCreate(*gorm.DB) error { ensureID(&d.ID); return nil }
func (e *Event) BeforeCreate(*gorm.DB) error            { ensureID(&e.ID); return nil }
func (d *Donation) BeforeCreate(*gorm.DB) error         { ensureID(&d.ID); return nil }
func (s *Slider) BeforeCreate(*gorm.DB) error           { ensureID(&s.ID); return nil }
func (m *MenuItem) BeforeCreate(*gorm.DB) error         { ensureID(&m.ID); return nil }
func (a *AuditLog) BeforeCreate(*gorm.DB) error         { ensureID(&a.ID); return nil }
