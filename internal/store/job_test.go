package store_test

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	api "github.com/presentai/presentai/api/v1alpha1"
	"github.com/presentai/presentai/internal/config"
	"github.com/presentai/presentai/internal/store"
	"github.com/presentai/presentai/internal/store/model"
)

const (
	insertJobStm = "INSERT INTO jobs (id, title, status, progress, message, video_path, created_at) VALUES ('%s', '%s', '%s', %d, '%s', '%s', '%s');"
)

func jobTimestamp(offset time.Duration) string {
	return time.Now().Add(offset).UTC().Format("2006-01-02 15:04:05")
}

var _ = Describe("job store", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB
	)

	BeforeAll(func() {
		db, err := store.InitDB(config.NewDefault())
		Expect(err).To(BeNil())

		s = store.NewStore(db)
		gormdb = db
		Expect(s.InitialMigration()).To(Succeed())
	})

	AfterAll(func() {
		s.Close()
	})

	Context("list", func() {
		It("successfully list all the jobs", func() {
			tx := gormdb.Exec(fmt.Sprintf(insertJobStm, uuid.NewString(), "demo one", "completed", 100, "Analysis complete", "/tmp/a.mp4", jobTimestamp(0)))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertJobStm, uuid.NewString(), "demo two", "processing", 25, "Running analysis tasks", "/tmp/b.mp4", jobTimestamp(0)))
			Expect(tx.Error).To(BeNil())

			jobs, err := s.Job().List(context.TODO(), store.NewJobQueryFilter(), store.NewJobQueryOptions())
			Expect(err).To(BeNil())
			Expect(jobs).To(HaveLen(2))
		})

		It("lists newest jobs first", func() {
			oldID := uuid.NewString()
			newID := uuid.NewString()
			tx := gormdb.Exec(fmt.Sprintf(insertJobStm, oldID, "old", "completed", 100, "Analysis complete", "", jobTimestamp(-time.Hour)))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertJobStm, newID, "new", "queued", 0, "", "", jobTimestamp(0)))
			Expect(tx.Error).To(BeNil())

			jobs, err := s.Job().List(context.TODO(), store.NewJobQueryFilter(), store.NewJobQueryOptions())
			Expect(err).To(BeNil())
			Expect(jobs).To(HaveLen(2))
			Expect(jobs[0].ID.String()).To(Equal(newID))
		})

		It("filters jobs by status", func() {
			tx := gormdb.Exec(fmt.Sprintf(insertJobStm, uuid.NewString(), "demo one", "completed", 100, "Analysis complete", "", jobTimestamp(0)))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertJobStm, uuid.NewString(), "demo two", "failed", 10, "video exceeds maximum duration", "", jobTimestamp(0)))
			Expect(tx.Error).To(BeNil())

			jobs, err := s.Job().List(context.TODO(), store.NewJobQueryFilter().WithStatus("failed"), store.NewJobQueryOptions())
			Expect(err).To(BeNil())
			Expect(jobs).To(HaveLen(1))
			Expect(jobs[0].Title).To(Equal("demo two"))
		})

		It("selects jobs older than the retention cutoff", func() {
			tx := gormdb.Exec(fmt.Sprintf(insertJobStm, uuid.NewString(), "expired", "completed", 100, "Analysis complete", "", jobTimestamp(-48*time.Hour)))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertJobStm, uuid.NewString(), "fresh", "completed", 100, "Analysis complete", "", jobTimestamp(0)))
			Expect(tx.Error).To(BeNil())

			cutoff := time.Now().Add(-24 * time.Hour)
			jobs, err := s.Job().List(context.TODO(), store.NewJobQueryFilter().WithCreatedBefore(cutoff), nil)
			Expect(err).To(BeNil())
			Expect(jobs).To(HaveLen(1))
			Expect(jobs[0].Title).To(Equal("expired"))
		})

		It("honors limit and offset", func() {
			for i := 0; i < 3; i++ {
				tx := gormdb.Exec(fmt.Sprintf(insertJobStm, uuid.NewString(), fmt.Sprintf("demo %d", i), "queued", 0, "", "", jobTimestamp(-time.Duration(i)*time.Minute)))
				Expect(tx.Error).To(BeNil())
			}

			jobs, err := s.Job().List(context.TODO(), store.NewJobQueryFilter(), store.NewJobQueryOptions().WithLimit(2))
			Expect(err).To(BeNil())
			Expect(jobs).To(HaveLen(2))

			jobs, err = s.Job().List(context.TODO(), store.NewJobQueryFilter(), store.NewJobQueryOptions().WithOffset(2))
			Expect(err).To(BeNil())
			Expect(jobs).To(HaveLen(1))
		})

		It("list all jobs -- no jobs", func() {
			jobs, err := s.Job().List(context.TODO(), store.NewJobQueryFilter(), store.NewJobQueryOptions())
			Expect(err).To(BeNil())
			Expect(jobs).To(HaveLen(0))
		})

		AfterEach(func() {
			gormdb.Exec("DELETE from jobs;")
		})
	})

	Context("get", func() {
		It("successfully get a job", func() {
			id := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertJobStm, id.String(), "demo day", "processing", 70, "Scoring results", "/tmp/v.mp4", jobTimestamp(0)))
			Expect(tx.Error).To(BeNil())

			job, err := s.Job().Get(context.TODO(), id)
			Expect(err).To(BeNil())
			Expect(job.Title).To(Equal("demo day"))
			Expect(job.Status).To(Equal("processing"))
			Expect(job.Progress).To(Equal(70))
			Expect(job.VideoPath).To(Equal("/tmp/v.mp4"))
		})

		It("failed to get a job -- job does not exist", func() {
			_, err := s.Job().Get(context.TODO(), uuid.New())
			Expect(err).To(MatchError(store.ErrRecordNotFound))
		})

		AfterEach(func() {
			gormdb.Exec("DELETE from jobs;")
		})
	})

	Context("create", func() {
		It("successfully creates a job", func() {
			job, err := s.Job().Create(context.TODO(), model.Job{
				ID:        uuid.New(),
				Title:     "sprint review",
				Status:    string(api.JobStatusQueued),
				VideoPath: "/tmp/v.mp4",
			})
			Expect(err).To(BeNil())
			Expect(job).NotTo(BeNil())
			Expect(job.CreatedAt).NotTo(BeZero())

			count := 0
			Expect(gormdb.Raw("SELECT COUNT(*) from jobs;").Scan(&count).Error).To(BeNil())
			Expect(count).To(Equal(1))
		})

		It("fails to create a job twice", func() {
			id := uuid.New()
			_, err := s.Job().Create(context.TODO(), model.Job{ID: id, Title: "dup", Status: string(api.JobStatusQueued)})
			Expect(err).To(BeNil())

			_, err = s.Job().Create(context.TODO(), model.Job{ID: id, Title: "dup", Status: string(api.JobStatusQueued)})
			Expect(err).To(MatchError(store.ErrDuplicateKey))
		})

		AfterEach(func() {
			gormdb.Exec("DELETE from jobs;")
		})
	})

	Context("update state", func() {
		It("advances status, progress and message", func() {
			id := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertJobStm, id.String(), "demo day", "queued", 0, "", "", jobTimestamp(0)))
			Expect(tx.Error).To(BeNil())

			job, err := s.Job().UpdateState(context.TODO(), id, "processing", 25, "Running analysis tasks")
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal("processing"))
			Expect(job.Progress).To(Equal(25))
			Expect(job.Message).To(Equal("Running analysis tasks"))
			Expect(job.UpdatedAt).NotTo(BeNil())

			stored, err := s.Job().Get(context.TODO(), id)
			Expect(err).To(BeNil())
			Expect(stored.Progress).To(Equal(25))
		})

		It("failed to update state -- job does not exist", func() {
			_, err := s.Job().UpdateState(context.TODO(), uuid.New(), "processing", 25, "Running analysis tasks")
			Expect(err).To(MatchError(store.ErrRecordNotFound))
		})

		AfterEach(func() {
			gormdb.Exec("DELETE from jobs;")
		})
	})

	Context("delete", func() {
		It("successfully deletes a job", func() {
			id := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertJobStm, id.String(), "demo day", "completed", 100, "Analysis complete", "", jobTimestamp(0)))
			Expect(tx.Error).To(BeNil())

			Expect(s.Job().Delete(context.TODO(), id)).To(Succeed())

			count := 1
			Expect(gormdb.Raw("SELECT COUNT(*) from jobs;").Scan(&count).Error).To(BeNil())
			Expect(count).To(Equal(0))
		})

		It("deleting an unknown job is not an error", func() {
			Expect(s.Job().Delete(context.TODO(), uuid.New())).To(Succeed())
		})

		AfterEach(func() {
			gormdb.Exec("DELETE from jobs;")
		})
	})
})
