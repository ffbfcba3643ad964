package store_test

import (
	"context"
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

var _ = Describe("question store", Ordered, func() {
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

	Context("save and get", func() {
		It("stores a generating marker row", func() {
			jobID := uuid.New()
			_, err := s.Question().Save(context.TODO(), model.QuestionSet{
				JobID:  jobID,
				Status: string(api.QuestionStatusGenerating),
			})
			Expect(err).To(BeNil())

			questions, err := s.Question().Get(context.TODO(), jobID)
			Expect(err).To(BeNil())
			Expect(questions.Status).To(Equal(string(api.QuestionStatusGenerating)))
			Expect(questions.Questions).To(BeNil())
		})

		It("upserts the terminal outcome over the generating row", func() {
			jobID := uuid.New()
			_, err := s.Question().Save(context.TODO(), model.QuestionSet{
				JobID:  jobID,
				Status: string(api.QuestionStatusGenerating),
			})
			Expect(err).To(BeNil())

			now := time.Now()
			generated := []string{"q1", "q2", "q3", "q4", "q5"}
			_, err = s.Question().Save(context.TODO(), model.QuestionSet{
				JobID:     jobID,
				Status:    string(api.QuestionStatusCompleted),
				Questions: model.MakeJSONField(generated),
				UpdatedAt: &now,
			})
			Expect(err).To(BeNil())

			count := 0
			Expect(gormdb.Raw("SELECT COUNT(*) from question_sets;").Scan(&count).Error).To(BeNil())
			Expect(count).To(Equal(1))

			questions, err := s.Question().Get(context.TODO(), jobID)
			Expect(err).To(BeNil())
			Expect(questions.Status).To(Equal(string(api.QuestionStatusCompleted)))
			Expect(questions.Questions.Data).To(Equal(generated))
			Expect(questions.UpdatedAt).NotTo(BeNil())
		})

		It("records a failed generation with its error", func() {
			jobID := uuid.New()
			now := time.Now()
			_, err := s.Question().Save(context.TODO(), model.QuestionSet{
				JobID:     jobID,
				Status:    string(api.QuestionStatusFailed),
				Error:     "generation quota exhausted",
				UpdatedAt: &now,
			})
			Expect(err).To(BeNil())

			questions, err := s.Question().Get(context.TODO(), jobID)
			Expect(err).To(BeNil())
			Expect(questions.Status).To(Equal(string(api.QuestionStatusFailed)))
			Expect(questions.Error).To(Equal("generation quota exhausted"))
		})

		It("failed to get a question set -- none requested", func() {
			_, err := s.Question().Get(context.TODO(), uuid.New())
			Expect(err).To(MatchError(store.ErrRecordNotFound))
		})

		AfterEach(func() {
			gormdb.Exec("DELETE from question_sets;")
		})
	})

	Context("delete", func() {
		It("successfully deletes a question set", func() {
			jobID := uuid.New()
			_, err := s.Question().Save(context.TODO(), model.QuestionSet{
				JobID:  jobID,
				Status: string(api.QuestionStatusCompleted),
			})
			Expect(err).To(BeNil())

			Expect(s.Question().Delete(context.TODO(), jobID)).To(Succeed())

			_, err = s.Question().Get(context.TODO(), jobID)
			Expect(err).To(MatchError(store.ErrRecordNotFound))
		})

		It("deleting an unknown question set is not an error", func() {
			Expect(s.Question().Delete(context.TODO(), uuid.New())).To(Succeed())
		})

		AfterEach(func() {
			gormdb.Exec("DELETE from question_sets;")
		})
	})
})
