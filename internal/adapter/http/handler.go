package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/harmonia-labs/lessonbook/internal/app"
	"github.com/harmonia-labs/lessonbook/internal/domain"
)

const timeFormat = "2006-01-02T15:04:05Z"

// Services bundles the application services the API exposes.
type Services struct {
	Requests *app.RequestService
	Quotes   *app.QuoteService
	Lessons  *app.LessonService
	Rates    *app.RateService
	Plans    *app.PlanService
}

// ActorInput carries caller identity headers, supplied upstream by the auth
// middleware this service trusts.
type ActorInput struct {
	ActorID   string `header:"X-Actor-Id" required:"true" doc:"Caller identity"`
	ActorRole string `header:"X-Actor-Role" required:"true" enum:"student,teacher" doc:"Caller role"`
}

func (a ActorInput) actor() domain.Actor {
	return domain.Actor{ID: a.ActorID, Role: domain.Role(a.ActorRole)}
}

// --- API representations ---

type RequestResponse struct {
	ID         string `json:"id" doc:"Unique identifier"`
	StudentID  string `json:"student_id" doc:"Owning student"`
	LessonType string `json:"lesson_type" doc:"Requested lesson type"`
	Notes      string `json:"notes,omitempty" doc:"Free-form notes"`
	CreatedAt  string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
}

type QuoteResponse struct {
	ID          string `json:"id" doc:"Unique identifier"`
	RequestID   string `json:"request_id" doc:"Lesson request this quote answers"`
	TeacherID   string `json:"teacher_id" doc:"Offering teacher"`
	AmountCents int64  `json:"amount_cents" doc:"Offered price in cents"`
	ExpiresAt   string `json:"expires_at" doc:"Offer deadline (ISO 8601)"`
	Status      string `json:"status" doc:"Current lifecycle state"`
	CreatedAt   string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
}

type LessonResponse struct {
	ID        string `json:"id" doc:"Unique identifier"`
	QuoteID   string `json:"quote_id" doc:"Accepted quote this lesson came from"`
	RequestID string `json:"request_id" doc:"Originating lesson request"`
	TeacherID string `json:"teacher_id" doc:"Teacher"`
	StudentID string `json:"student_id" doc:"Student"`
	Status    string `json:"status" doc:"Current lifecycle state"`
	CreatedAt string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
}

type RateResponse struct {
	ID          string `json:"id" doc:"Unique identifier"`
	TeacherID   string `json:"teacher_id" doc:"Owning teacher"`
	LessonType  string `json:"lesson_type" doc:"Lesson type this rate covers"`
	AmountCents int64  `json:"amount_cents" doc:"Hourly price in cents"`
	Status      string `json:"status" doc:"Current lifecycle state"`
	CreatedAt   string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
}

type PlanResponse struct {
	ID        string `json:"id" doc:"Unique identifier"`
	TeacherID string `json:"teacher_id" doc:"Owning teacher"`
	StudentID string `json:"student_id" doc:"Student the plan is for"`
	Title     string `json:"title" doc:"Plan title"`
	Status    string `json:"status" doc:"Current lifecycle state"`
	CreatedAt string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
}

type MilestoneResponse struct {
	ID        string `json:"id" doc:"Unique identifier"`
	PlanID    string `json:"plan_id" doc:"Owning plan"`
	Title     string `json:"title" doc:"Milestone title"`
	Position  int    `json:"position" doc:"Order within the plan"`
	Status    string `json:"status" doc:"Current lifecycle state"`
	CreatedAt string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
}

type StatusRecordResponse struct {
	ID        string `json:"id" doc:"Unique identifier"`
	Status    string `json:"status" doc:"Recorded lifecycle state"`
	Context   string `json:"context,omitempty" doc:"Free-form change context (JSON)"`
	CreatedAt string `json:"created_at" doc:"When the state was reached (ISO 8601)"`
}

func toRequestResponse(r domain.LessonRequest) RequestResponse {
	return RequestResponse{
		ID:         r.ID,
		StudentID:  r.StudentID,
		LessonType: r.LessonType,
		Notes:      r.Notes,
		CreatedAt:  r.CreatedAt.Format(timeFormat),
	}
}

func toQuoteResponse(q domain.Quote) QuoteResponse {
	return QuoteResponse{
		ID:          q.ID,
		RequestID:   q.RequestID,
		TeacherID:   q.TeacherID,
		AmountCents: q.AmountCents,
		ExpiresAt:   q.ExpiresAt.Format(timeFormat),
		Status:      string(q.Status),
		CreatedAt:   q.CreatedAt.Format(timeFormat),
	}
}

func toLessonResponse(l domain.Lesson) LessonResponse {
	return LessonResponse{
		ID:        l.ID,
		QuoteID:   l.QuoteID,
		RequestID: l.RequestID,
		TeacherID: l.TeacherID,
		StudentID: l.StudentID,
		Status:    string(l.Status),
		CreatedAt: l.CreatedAt.Format(timeFormat),
	}
}

func toRateResponse(r domain.HourlyRate) RateResponse {
	return RateResponse{
		ID:          r.ID,
		TeacherID:   r.TeacherID,
		LessonType:  r.LessonType,
		AmountCents: r.AmountCents,
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt.Format(timeFormat),
	}
}

func toPlanResponse(p domain.LessonPlan) PlanResponse {
	return PlanResponse{
		ID:        p.ID,
		TeacherID: p.TeacherID,
		StudentID: p.StudentID,
		Title:     p.Title,
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt.Format(timeFormat),
	}
}

func toMilestoneResponse(m domain.Milestone) MilestoneResponse {
	return MilestoneResponse{
		ID:        m.ID,
		PlanID:    m.PlanID,
		Title:     m.Title,
		Position:  m.Position,
		Status:    string(m.Status),
		CreatedAt: m.CreatedAt.Format(timeFormat),
	}
}

func toHistoryResponse(records []domain.StatusRecord) []StatusRecordResponse {
	out := make([]StatusRecordResponse, len(records))
	for i, rec := range records {
		out[i] = StatusRecordResponse{
			ID:        rec.ID,
			Status:    string(rec.Status),
			Context:   string(rec.Context),
			CreatedAt: rec.CreatedAt.Format(timeFormat),
		}
	}
	return out
}

// --- Inputs/outputs ---

type CreateRequestInput struct {
	ActorInput
	Body struct {
		LessonType string `json:"lesson_type" minLength:"1" maxLength:"100" doc:"Requested lesson type (e.g. guitar)"`
		Notes      string `json:"notes,omitempty" maxLength:"2000" doc:"Free-form notes"`
	}
}

type CreateRequestOutput struct {
	Body RequestResponse
}

type GetRequestInput struct {
	ID string `path:"id" doc:"Lesson request ID"`
}

type GetRequestOutput struct {
	Body RequestResponse
}

type ListRequestQuotesInput struct {
	ID string `path:"id" doc:"Lesson request ID"`
}

type ListRequestQuotesOutput struct {
	Body []QuoteResponse
}

type SubmitQuoteInput struct {
	ActorInput
	ID   string `path:"id" doc:"Lesson request ID"`
	Body struct {
		AmountCents int64     `json:"amount_cents" minimum:"1" doc:"Offered price in cents"`
		ExpiresAt   time.Time `json:"expires_at" doc:"Offer deadline"`
	}
}

type SubmitQuoteOutput struct {
	Body QuoteResponse
}

type GetQuoteInput struct {
	ID string `path:"id" doc:"Quote ID"`
}

type GetQuoteOutput struct {
	Body QuoteResponse
}

type QuoteHistoryInput struct {
	ID string `path:"id" doc:"Quote ID"`
}

type QuoteHistoryOutput struct {
	Body []StatusRecordResponse
}

type AcceptQuoteInput struct {
	ActorInput
	ID string `path:"id" doc:"Quote ID"`
}

type AcceptQuoteOutput struct {
	Body LessonResponse
}

type QuoteActionInput struct {
	ActorInput
	ID string `path:"id" doc:"Quote ID"`
}

type QuoteActionOutput struct {
	Body QuoteResponse
}

type GetLessonInput struct {
	ID string `path:"id" doc:"Lesson ID"`
}

type GetLessonOutput struct {
	Body LessonResponse
}

type LessonTransitionInput struct {
	ActorInput
	ID   string `path:"id" doc:"Lesson ID"`
	Body struct {
		Transition string `json:"transition" enum:"start_progress,complete,cancel" doc:"Lifecycle transition to apply"`
	}
}

type LessonTransitionOutput struct {
	Body LessonResponse
}

type HistoryInput struct {
	ID string `path:"id" doc:"Entity ID"`
}

type HistoryOutput struct {
	Body []StatusRecordResponse
}

type CreateRateInput struct {
	ActorInput
	Body struct {
		LessonType  string `json:"lesson_type" minLength:"1" maxLength:"100" doc:"Lesson type this rate covers"`
		AmountCents int64  `json:"amount_cents" minimum:"1" doc:"Hourly price in cents"`
	}
}

type CreateRateOutput struct {
	Body RateResponse
}

type ListRatesInput struct {
	TeacherID string `query:"teacher_id" required:"true" doc:"Teacher to list rates for"`
}

type ListRatesOutput struct {
	Body []RateResponse
}

type RateTransitionInput struct {
	ActorInput
	ID   string `path:"id" doc:"Rate ID"`
	Body struct {
		Transition string `json:"transition" enum:"activate,deactivate" doc:"Lifecycle transition to apply"`
	}
}

type RateTransitionOutput struct {
	Body RateResponse
}

type CreatePlanInput struct {
	ActorInput
	Body struct {
		StudentID string `json:"student_id" minLength:"1" doc:"Student the plan is for"`
		Title     string `json:"title" minLength:"1" maxLength:"255" doc:"Plan title"`
	}
}

type CreatePlanOutput struct {
	Body PlanResponse
}

type GetPlanInput struct {
	ID string `path:"id" doc:"Plan ID"`
}

type GetPlanOutput struct {
	Body struct {
		Plan       PlanResponse        `json:"plan"`
		Milestones []MilestoneResponse `json:"milestones"`
	}
}

type AddMilestoneInput struct {
	ActorInput
	ID   string `path:"id" doc:"Plan ID"`
	Body struct {
		Title    string `json:"title" minLength:"1" maxLength:"255" doc:"Milestone title"`
		Position int    `json:"position" minimum:"0" doc:"Order within the plan"`
	}
}

type AddMilestoneOutput struct {
	Body MilestoneResponse
}

type PlanTransitionInput struct {
	ActorInput
	ID   string `path:"id" doc:"Plan ID"`
	Body struct {
		Transition string `json:"transition" enum:"start_progress,complete,withdraw" doc:"Lifecycle transition to apply"`
	}
}

type PlanTransitionOutput struct {
	Body PlanResponse
}

type MilestoneTransitionInput struct {
	ActorInput
	ID   string `path:"id" doc:"Milestone ID"`
	Body struct {
		Transition string `json:"transition" enum:"start_progress,complete" doc:"Lifecycle transition to apply"`
	}
}

type MilestoneTransitionOutput struct {
	Body MilestoneResponse
}

// Register adds all API routes to the Huma API.
func Register(api huma.API, svc Services) {
	huma.Register(api, huma.Operation{
		OperationID: "create-lesson-request",
		Method:      http.MethodPost,
		Path:        "/api/v1/lesson-requests",
		Summary:     "Open a lesson request",
		Tags:        []string{"Lesson Requests"},
	}, func(ctx context.Context, input *CreateRequestInput) (*CreateRequestOutput, error) {
		req, err := svc.Requests.Create(ctx, input.actor(), input.Body.LessonType, input.Body.Notes)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &CreateRequestOutput{Body: toRequestResponse(req)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-lesson-request",
		Method:      http.MethodGet,
		Path:        "/api/v1/lesson-requests/{id}",
		Summary:     "Get a lesson request by ID",
		Tags:        []string{"Lesson Requests"},
	}, func(ctx context.Context, input *GetRequestInput) (*GetRequestOutput, error) {
		req, err := svc.Requests.Get(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &GetRequestOutput{Body: toRequestResponse(req)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-request-quotes",
		Method:      http.MethodGet,
		Path:        "/api/v1/lesson-requests/{id}/quotes",
		Summary:     "List quotes competing for a lesson request",
		Tags:        []string{"Quotes"},
	}, func(ctx context.Context, input *ListRequestQuotesInput) (*ListRequestQuotesOutput, error) {
		quotes, err := svc.Requests.Quotes(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]QuoteResponse, len(quotes))
		for i, q := range quotes {
			resp[i] = toQuoteResponse(q)
		}
		return &ListRequestQuotesOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "submit-quote",
		Method:      http.MethodPost,
		Path:        "/api/v1/lesson-requests/{id}/quotes",
		Summary:     "Submit a quote against a lesson request",
		Tags:        []string{"Quotes"},
	}, func(ctx context.Context, input *SubmitQuoteInput) (*SubmitQuoteOutput, error) {
		quote, err := svc.Quotes.Submit(ctx, input.actor(), input.ID, input.Body.AmountCents, input.Body.ExpiresAt)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &SubmitQuoteOutput{Body: toQuoteResponse(quote)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-quote",
		Method:      http.MethodGet,
		Path:        "/api/v1/quotes/{id}",
		Summary:     "Get a quote by ID",
		Tags:        []string{"Quotes"},
	}, func(ctx context.Context, input *GetQuoteInput) (*GetQuoteOutput, error) {
		quote, err := svc.Quotes.Get(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &GetQuoteOutput{Body: toQuoteResponse(quote)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-quote-history",
		Method:      http.MethodGet,
		Path:        "/api/v1/quotes/{id}/history",
		Summary:     "Get a quote's full status history",
		Tags:        []string{"Quotes"},
	}, func(ctx context.Context, input *QuoteHistoryInput) (*QuoteHistoryOutput, error) {
		records, err := svc.Quotes.History(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &QuoteHistoryOutput{Body: toHistoryResponse(records)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "accept-quote",
		Method:      http.MethodPost,
		Path:        "/api/v1/quotes/{id}/accept",
		Summary:     "Accept a quote, confirming the lesson",
		Description: "Accepts the quote, creates the lesson, and expires every other live quote for the same request, atomically.",
		Tags:        []string{"Quotes"},
	}, func(ctx context.Context, input *AcceptQuoteInput) (*AcceptQuoteOutput, error) {
		lesson, err := svc.Quotes.Accept(ctx, input.actor(), input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &AcceptQuoteOutput{Body: toLessonResponse(lesson)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reject-quote",
		Method:      http.MethodPost,
		Path:        "/api/v1/quotes/{id}/reject",
		Summary:     "Reject a quote",
		Tags:        []string{"Quotes"},
	}, func(ctx context.Context, input *QuoteActionInput) (*QuoteActionOutput, error) {
		quote, err := svc.Quotes.Reject(ctx, input.actor(), input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &QuoteActionOutput{Body: toQuoteResponse(quote)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "withdraw-quote",
		Method:      http.MethodPost,
		Path:        "/api/v1/quotes/{id}/withdraw",
		Summary:     "Withdraw a quote",
		Tags:        []string{"Quotes"},
	}, func(ctx context.Context, input *QuoteActionInput) (*QuoteActionOutput, error) {
		quote, err := svc.Quotes.Withdraw(ctx, input.actor(), input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &QuoteActionOutput{Body: toQuoteResponse(quote)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-lesson",
		Method:      http.MethodGet,
		Path:        "/api/v1/lessons/{id}",
		Summary:     "Get a lesson by ID",
		Tags:        []string{"Lessons"},
	}, func(ctx context.Context, input *GetLessonInput) (*GetLessonOutput, error) {
		lesson, err := svc.Lessons.Get(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &GetLessonOutput{Body: toLessonResponse(lesson)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "transition-lesson",
		Method:      http.MethodPost,
		Path:        "/api/v1/lessons/{id}/transitions",
		Summary:     "Apply a lifecycle transition to a lesson",
		Tags:        []string{"Lessons"},
	}, func(ctx context.Context, input *LessonTransitionInput) (*LessonTransitionOutput, error) {
		lesson, err := svc.Lessons.Transition(ctx, input.actor(), input.ID, domain.Transition(input.Body.Transition))
		if err != nil {
			return nil, toHumaError(err)
		}
		return &LessonTransitionOutput{Body: toLessonResponse(lesson)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-lesson-history",
		Method:      http.MethodGet,
		Path:        "/api/v1/lessons/{id}/history",
		Summary:     "Get a lesson's full status history",
		Tags:        []string{"Lessons"},
	}, func(ctx context.Context, input *HistoryInput) (*HistoryOutput, error) {
		records, err := svc.Lessons.History(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &HistoryOutput{Body: toHistoryResponse(records)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "create-rate",
		Method:      http.MethodPost,
		Path:        "/api/v1/rates",
		Summary:     "Create an hourly rate",
		Tags:        []string{"Rates"},
	}, func(ctx context.Context, input *CreateRateInput) (*CreateRateOutput, error) {
		rate, err := svc.Rates.Create(ctx, input.actor(), input.Body.LessonType, input.Body.AmountCents)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &CreateRateOutput{Body: toRateResponse(rate)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-rates",
		Method:      http.MethodGet,
		Path:        "/api/v1/rates",
		Summary:     "List a teacher's hourly rates",
		Tags:        []string{"Rates"},
	}, func(ctx context.Context, input *ListRatesInput) (*ListRatesOutput, error) {
		rates, err := svc.Rates.List(ctx, input.TeacherID)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]RateResponse, len(rates))
		for i, r := range rates {
			resp[i] = toRateResponse(r)
		}
		return &ListRatesOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "transition-rate",
		Method:      http.MethodPost,
		Path:        "/api/v1/rates/{id}/transitions",
		Summary:     "Activate or deactivate an hourly rate",
		Tags:        []string{"Rates"},
	}, func(ctx context.Context, input *RateTransitionInput) (*RateTransitionOutput, error) {
		rate, err := svc.Rates.SetStatus(ctx, input.actor(), input.ID, domain.Transition(input.Body.Transition))
		if err != nil {
			return nil, toHumaError(err)
		}
		return &RateTransitionOutput{Body: toRateResponse(rate)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-rate-history",
		Method:      http.MethodGet,
		Path:        "/api/v1/rates/{id}/history",
		Summary:     "Get an hourly rate's full status history",
		Tags:        []string{"Rates"},
	}, func(ctx context.Context, input *HistoryInput) (*HistoryOutput, error) {
		records, err := svc.Rates.History(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &HistoryOutput{Body: toHistoryResponse(records)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "create-plan",
		Method:      http.MethodPost,
		Path:        "/api/v1/plans",
		Summary:     "Create a lesson plan",
		Tags:        []string{"Plans"},
	}, func(ctx context.Context, input *CreatePlanInput) (*CreatePlanOutput, error) {
		plan, err := svc.Plans.Create(ctx, input.actor(), input.Body.StudentID, input.Body.Title)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &CreatePlanOutput{Body: toPlanResponse(plan)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-plan",
		Method:      http.MethodGet,
		Path:        "/api/v1/plans/{id}",
		Summary:     "Get a lesson plan with its milestones",
		Tags:        []string{"Plans"},
	}, func(ctx context.Context, input *GetPlanInput) (*GetPlanOutput, error) {
		plan, milestones, err := svc.Plans.Get(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}

		out := &GetPlanOutput{}
		out.Body.Plan = toPlanResponse(plan)
		out.Body.Milestones = make([]MilestoneResponse, len(milestones))
		for i, m := range milestones {
			out.Body.Milestones[i] = toMilestoneResponse(m)
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "add-milestone",
		Method:      http.MethodPost,
		Path:        "/api/v1/plans/{id}/milestones",
		Summary:     "Add a milestone to a plan",
		Tags:        []string{"Plans"},
	}, func(ctx context.Context, input *AddMilestoneInput) (*AddMilestoneOutput, error) {
		milestone, err := svc.Plans.AddMilestone(ctx, input.actor(), input.ID, input.Body.Title, input.Body.Position)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &AddMilestoneOutput{Body: toMilestoneResponse(milestone)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "transition-plan",
		Method:      http.MethodPost,
		Path:        "/api/v1/plans/{id}/transitions",
		Summary:     "Apply a lifecycle transition to a plan",
		Tags:        []string{"Plans"},
	}, func(ctx context.Context, input *PlanTransitionInput) (*PlanTransitionOutput, error) {
		plan, err := svc.Plans.TransitionPlan(ctx, input.actor(), input.ID, domain.Transition(input.Body.Transition))
		if err != nil {
			return nil, toHumaError(err)
		}
		return &PlanTransitionOutput{Body: toPlanResponse(plan)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "transition-milestone",
		Method:      http.MethodPost,
		Path:        "/api/v1/milestones/{id}/transitions",
		Summary:     "Apply a lifecycle transition to a milestone",
		Tags:        []string{"Plans"},
	}, func(ctx context.Context, input *MilestoneTransitionInput) (*MilestoneTransitionOutput, error) {
		milestone, err := svc.Plans.TransitionMilestone(ctx, input.actor(), input.ID, domain.Transition(input.Body.Transition))
		if err != nil {
			return nil, toHumaError(err)
		}
		return &MilestoneTransitionOutput{Body: toMilestoneResponse(milestone)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-milestone-history",
		Method:      http.MethodGet,
		Path:        "/api/v1/milestones/{id}/history",
		Summary:     "Get a milestone's full status history",
		Tags:        []string{"Plans"},
	}, func(ctx context.Context, input *HistoryInput) (*HistoryOutput, error) {
		records, err := svc.Plans.MilestoneHistory(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &HistoryOutput{Body: toHistoryResponse(records)}, nil
	})
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	var nfErr *domain.NotFoundError
	if errors.As(err, &nfErr) {
		return huma.Error404NotFound(nfErr.Error())
	}

	var trErr *domain.InvalidTransitionError
	if errors.As(err, &trErr) {
		return huma.Error422UnprocessableEntity(trErr.Error())
	}

	var cfErr *domain.ConflictError
	if errors.As(err, &cfErr) {
		return huma.Error409Conflict(cfErr.Error())
	}

	var authErr *domain.AuthorizationError
	if errors.As(err, &authErr) {
		return huma.Error403Forbidden(authErr.Error())
	}

	var expErr *domain.ExpiredError
	if errors.As(err, &expErr) {
		return huma.Error410Gone(expErr.Error())
	}

	return huma.Error500InternalServerError("internal server error")
}
