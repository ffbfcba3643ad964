package service_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	api "github.com/presentai/presentai/api/v1alpha1"
	"github.com/presentai/presentai/internal/config"
	"github.com/presentai/presentai/internal/gemini"
	"github.com/presentai/presentai/internal/service"
	"github.com/presentai/presentai/internal/store"
	"github.com/presentai/presentai/internal/store/model"
)

var _ = Describe("question service", Ordered, func() {
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
		gormdb.Exec("DELETE FROM question_sets;")
		gormdb.Exec("DELETE FROM reports;")
		gormdb.Exec("DELETE FROM jobs;")
	})

	seedCompletedJob := func(transcript string) uuid.UUID {
		jobID := uuid.New()
		tx := gormdb.Exec(fmt.Sprintf(insertJobStm, jobID, "talk", string(api.JobStatusCompleted), 100, "Analysis complete", "", timestamp(time.Now())))
		Expect(tx.Error).To(BeNil())

		_, err := s.Report().Save(context.TODO(), model.Report{
			JobID:    jobID,
			Document: model.MakeJSONField(api.AggregatedReport{Transcript: transcript}),
		})
		Expect(err).To(BeNil())
		return jobID
	}

	Context("start", func() {
		It("generates questions from the transcript", func() {
			jobID := seedCompletedJob("today I will cover the quarterly numbers")
			generator := &fakeQuestionGenerator{
				output: "```json\n[\"How were the numbers computed?\",\"What changed since last quarter?\",\"Which regions grew?\",\"What are the risks?\",\"What happens next?\"]\n```",
			}
			svc := service.NewQuestionService(s, generator)

			questionSet, err := svc.StartGeneration(context.TODO(), jobID)
			Expect(err).To(BeNil())
			Expect(questionSet.Status).To(Equal(string(api.QuestionStatusGenerating)))

			svc.Wait()

			final, err := svc.GetQuestions(context.TODO(), jobID)
			Expect(err).To(BeNil())
			Expect(final.Status).To(Equal(string(api.QuestionStatusCompleted)))
			Expect(final.Questions.Data).To(HaveLen(5))
			Expect(final.Questions.Data[0]).To(Equal("How were the numbers computed?"))
			Expect(generator.instruction()).To(ContainSubstring("today I will cover the quarterly numbers"))
		})

		It("rejects a job without a report", func() {
			jobID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertJobStm, jobID, "talk", string(api.JobStatusProcessing), 25, "Running analysis tasks", "", timestamp(time.Now())))
			Expect(tx.Error).To(BeNil())

			svc := service.NewQuestionService(s, &fakeQuestionGenerator{})
			_, err := svc.StartGeneration(context.TODO(), jobID)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrReportNotReady{}))
		})

		It("rejects a report without a transcript", func() {
			jobID := seedCompletedJob("")

			svc := service.NewQuestionService(s, &fakeQuestionGenerator{})
			_, err := svc.StartGeneration(context.TODO(), jobID)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrReportNotReady{}))
		})

		It("rejects an unknown job", func() {
			svc := service.NewQuestionService(s, &fakeQuestionGenerator{})
			_, err := svc.StartGeneration(context.TODO(), uuid.New())
			Expect(err).To(BeAssignableToTypeOf(&service.ErrJobNotFound{}))
		})

		It("refuses to start while a generation is running", func() {
			jobID := seedCompletedJob("transcript")
			_, err := s.Question().Save(context.TODO(), model.QuestionSet{
				JobID:  jobID,
				Status: string(api.QuestionStatusGenerating),
			})
			Expect(err).To(BeNil())

			svc := service.NewQuestionService(s, &fakeQuestionGenerator{})
			_, err = svc.StartGeneration(context.TODO(), jobID)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrQuestionsGenerating{}))
		})

		It("records a generator failure", func() {
			jobID := seedCompletedJob("transcript")
			generator := &fakeQuestionGenerator{err: fmt.Errorf("%w: try later", gemini.ErrUnavailable)}
			svc := service.NewQuestionService(s, generator)

			_, err := svc.StartGeneration(context.TODO(), jobID)
			Expect(err).To(BeNil())
			svc.Wait()

			final, err := svc.GetQuestions(context.TODO(), jobID)
			Expect(err).To(BeNil())
			Expect(final.Status).To(Equal(string(api.QuestionStatusFailed)))
			Expect(final.Error).To(ContainSubstring("try later"))
		})

		It("records unparseable output as a failure", func() {
			jobID := seedCompletedJob("transcript")
			generator := &fakeQuestionGenerator{output: "I would rather chat about it."}
			svc := service.NewQuestionService(s, generator)

			_, err := svc.StartGeneration(context.TODO(), jobID)
			Expect(err).To(BeNil())
			svc.Wait()

			final, err := svc.GetQuestions(context.TODO(), jobID)
			Expect(err).To(BeNil())
			Expect(final.Status).To(Equal(string(api.QuestionStatusFailed)))
			Expect(final.Error).To(ContainSubstring("failed to parse model output"))
		})

		It("allows a rerun after a terminal state", func() {
			jobID := seedCompletedJob("transcript")
			generator := &fakeQuestionGenerator{output: `["q1","q2"]`}
			svc := service.NewQuestionService(s, generator)

			_, err := svc.StartGeneration(context.TODO(), jobID)
			Expect(err).To(BeNil())
			svc.Wait()

			_, err = svc.StartGeneration(context.TODO(), jobID)
			Expect(err).To(BeNil())
			svc.Wait()

			final, err := svc.GetQuestions(context.TODO(), jobID)
			Expect(err).To(BeNil())
			Expect(final.Status).To(Equal(string(api.QuestionStatusCompleted)))
			Expect(final.Questions.Data).To(Equal([]string{"q1", "q2"}))
		})
	})

	Context("get", func() {
		It("distinguishes a missing set from a missing job", func() {
			jobID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertJobStm, jobID, "talk", string(api.JobStatusCompleted), 100, "Analysis complete", "", timestamp(time.Now())))
			Expect(tx.Error).To(BeNil())

			svc := service.NewQuestionService(s, &fakeQuestionGenerator{})

			_, err := svc.GetQuestions(context.TODO(), jobID)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrQuestionSetNotFound{}))

			_, err = svc.GetQuestions(context.TODO(), uuid.New())
			Expect(err).To(BeAssignableToTypeOf(&service.ErrJobNotFound{}))
		})
	})
})

type fakeQuestionGenerator struct {
	lock            sync.Mutex
	output          string
	err             error
	lastInstruction string
}

func (f *fakeQuestionGenerator) Generate(_ context.Context, instruction string, _ ...gemini.Handle) (string, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.lastInstruction = instruction
	if f.err != nil {
		return "", f.err
	}
	return f.output, nil
}

func (f *fakeQuestionGenerator) instruction() string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.lastInstruction
}
