package service_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	api "github.com/presentai/presentai/api/v1alpha1"
	"github.com/presentai/presentai/internal/config"
	"github.com/presentai/presentai/internal/service"
	"github.com/presentai/presentai/internal/store"
)

var _ = Describe("sweeper", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB
	)

	BeforeAll(func() {
		db, err := store.InitDB(config.NewDefault())
		Expect(err).To(BeNil())

		s = store.NewStore(db)
		gormdb = db
		err = s.InitialMigration()
		Expect(err).To(BeNil())
	})

	AfterAll(func() {
		s.Close()
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM reports;")
		gormdb.Exec("DELETE FROM question_sets;")
		gormdb.Exec("DELETE FROM jobs;")
	})

	It("removes only jobs older than the retention window", func() {
		cfg := config.NewDefault()
		cfg.Service.DataDir = GinkgoT().TempDir()

		expiredID := uuid.New()
		freshID := uuid.New()
		tx := gormdb.Exec(fmt.Sprintf(insertJobStm, expiredID, "old talk", string(api.JobStatusCompleted), 100, "Analysis complete", "", timestamp(time.Now().Add(-48*time.Hour))))
		Expect(tx.Error).To(BeNil())
		tx = gormdb.Exec(fmt.Sprintf(insertJobStm, freshID, "new talk", string(api.JobStatusProcessing), 25, "Running analysis tasks", "", timestamp(time.Now())))
		Expect(tx.Error).To(BeNil())

		expiredDir := filepath.Join(cfg.Service.DataDir, expiredID.String())
		Expect(os.MkdirAll(expiredDir, 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(expiredDir, "video.mp4"), []byte("stale"), 0o644)).To(Succeed())

		jobs := service.NewJobService(s, cfg, newFakeAnalyzer(), &fakeProber{duration: 30})
		sweeper := service.NewSweeper(jobs, s, 24*time.Hour, time.Hour)

		removed, err := sweeper.Sweep(context.TODO())
		Expect(err).To(BeNil())
		Expect(removed).To(Equal(1))

		_, err = jobs.GetJob(context.TODO(), expiredID)
		Expect(err).To(BeAssignableToTypeOf(&service.ErrJobNotFound{}))

		_, err = jobs.GetJob(context.TODO(), freshID)
		Expect(err).To(BeNil())

		_, err = os.Stat(expiredDir)
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	It("sweeps on the ticker until stopped", func() {
		cfg := config.NewDefault()
		cfg.Service.DataDir = GinkgoT().TempDir()

		expiredID := uuid.New()
		tx := gormdb.Exec(fmt.Sprintf(insertJobStm, expiredID, "old talk", string(api.JobStatusCompleted), 100, "Analysis complete", "", timestamp(time.Now().Add(-48*time.Hour))))
		Expect(tx.Error).To(BeNil())

		jobs := service.NewJobService(s, cfg, newFakeAnalyzer(), &fakeProber{duration: 30})
		sweeper := service.NewSweeper(jobs, s, 24*time.Hour, 5*time.Millisecond)

		ctx, cancel := context.WithCancel(context.TODO())
		defer cancel()
		sweeper.Start(ctx)

		Eventually(func() error {
			_, err := jobs.GetJob(context.TODO(), expiredID)
			return err
		}).Should(BeAssignableToTypeOf(&service.ErrJobNotFound{}))
	})
})
