package models

import (
	"time"

	"github.com/diewo77/multisarl/internal/validation"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// EstimationRow is one line of the HR cost estimation worksheet.
type EstimationRow struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	Fonction          string          `gorm:"size:255;not null" json:"fonction"`
	NbrSalaries       int             `gorm:"not null" json:"nbr_salaries"`
	TauxAffectation   decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"taux_affectation"`
	DureeTravailMois  decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"duree_travail_mois"`
	JoursParMois      decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"jours_par_mois"`
	SalaireJournalier decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"salaire_journalier"`
	CreatedAt         time.Time       `json:"created_at"`

	Cout decimal.Decimal `gorm:"-" json:"cout"`
}

func (EstimationRow) TableName() string   { return "hr_estimation_rows" }
func (r *EstimationRow) PrimaryKey() uint { return r.ID }
func (r *EstimationRow) String() string   { return r.Fonction }

// AfterFind and AfterSave expose the computed row cost.
func (r *EstimationRow) AfterFind(*gorm.DB) error {
	r.Cout = r.Cost()
	return nil
}

func (r *EstimationRow) AfterSave(*gorm.DB) error {
	r.Cout = r.Cost()
	return nil
}

func (r *EstimationRow) Validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("fonction", r.Fonction, v)
	validation.NonNegativeInt("nbr_salaries", r.NbrSalaries, v)
	validation.NonNegative("taux_affectation", r.TauxAffectation, v)
	validation.NonNegative("duree_travail_mois", r.DureeTravailMois, v)
	validation.NonNegative("jours_par_mois", r.JoursParMois, v)
	validation.NonNegative("salaire_journalier", r.SalaireJournalier, v)
	return v
}

// Cost is salaries × allocation% × months × days × daily wage.
func (r *EstimationRow) Cost() decimal.Decimal {
	return decimal.NewFromInt(int64(r.NbrSalaries)).
		Mul(r.TauxAffectation.Div(hundred)).
		Mul(r.DureeTravailMois).
		Mul(r.JoursParMois).
		Mul(r.SalaireJournalier).
		Round(2)
}
