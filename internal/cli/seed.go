package cli

import (
	"fmt"
	"time"

	"tempo-api/internal/model"
	"tempo-api/pkg/config"
	"tempo-api/pkg/database"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "Seed a demo tenant with users and a rota week",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(rootOpts)
		},
	}

	return cmd
}

func runSeed(opts *RootOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		setting := model.Setting{
			ID:   1,
			Data: `{"directories": {"locations": ["HQ", "Harbour"], "departments": ["Front of House", "Kitchen"]}}`,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&setting).Error; err != nil {
			return fmt.Errorf("seed settings: %w", err)
		}

		tenant := model.Tenant{
			Slug:               "demo",
			LegalName:          "Demo Workforce Ltd",
			Settings:           `{"timezone": "Europe/Madrid"}`,
			SubscriptionStatus: model.SubscriptionTrial,
		}
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&tenant)
		if result.Error != nil {
			return fmt.Errorf("seed tenant: %w", result.Error)
		}
		if tenant.ID == 0 {
			// Already seeded
			if err := tx.Where("slug = ?", tenant.Slug).First(&tenant).Error; err != nil {
				return err
			}
			fmt.Println("Demo tenant already present, nothing to do")
			return nil
		}

		hash, err := bcrypt.GenerateFromPassword([]byte("changeme123"), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		manager := model.User{
			TenantID:     tenant.ID,
			Email:        "manager@demo.test",
			PasswordHash: string(hash),
			Name:         "Marta Manager",
			Role:         model.RoleManager,
			Location:     "HQ",
			Department:   "Front of House",
		}
		staff := model.User{
			TenantID:     tenant.ID,
			Email:        "staff@demo.test",
			PasswordHash: string(hash),
			Name:         "Sam Staff",
			Role:         model.RoleStaff,
			Location:     "HQ",
			Department:   "Kitchen",
		}
		for _, u := range []*model.User{&manager, &staff} {
			if err := tx.Create(u).Error; err != nil {
				return fmt.Errorf("seed user %s: %w", u.Email, err)
			}
			scope := model.UserScope{UserID: u.ID, Location: u.Location, Department: u.Department}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&scope).Error; err != nil {
				return fmt.Errorf("seed scope for %s: %w", u.Email, err)
			}
		}

		weekStart := time.Now().Truncate(24 * time.Hour)
		week := model.RotaWeek{
			TenantID:   tenant.ID,
			WeekStart:  weekStart,
			Location:   "HQ",
			Department: "Kitchen",
			Published:  true,
		}
		if err := tx.Create(&week).Error; err != nil {
			return fmt.Errorf("seed rota week: %w", err)
		}

		shift := model.RotaShift{
			TenantID:   tenant.ID,
			WeekID:     week.ID,
			UserID:     &staff.ID,
			StartTime:  weekStart.Add(9 * time.Hour),
			EndTime:    weekStart.Add(17 * time.Hour),
			Location:   week.Location,
			Department: week.Department,
			RoleLabel:  "line cook",
		}
		if err := tx.Create(&shift).Error; err != nil {
			return fmt.Errorf("seed shift: %w", err)
		}

		fmt.Println("Seeded demo tenant 'demo' with manager@demo.test / staff@demo.test")
		return nil
	})
}
