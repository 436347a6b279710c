// Package applications caches job applications. Status transitions are
// enforced by the server; the client only mirrors what it returns.
package applications

import (
	"context"

	"talent-sync/internal/api"
	"talent-sync/internal/common/validation"
	"talent-sync/internal/models"
	"talent-sync/internal/store"
)

const (
	FetchStudentApplicationsType = "applications/fetchStudentApplications"
	FetchJobApplicationsType     = "applications/fetchJobApplications"
	ApplyToJobType               = "applications/applyToJob"
	UpdateApplicationStatusType  = "applications/updateApplicationStatus"
)

type API interface {
	GetStudentApplications(ctx context.Context, studentID string) (api.ListResult[models.Application], error)
	GetJobApplications(ctx context.Context, jobID string) (api.ListResult[models.Application], error)
	ApplyToJob(ctx context.Context, jobID string, in models.JobApplication) (models.Application, error)
	UpdateApplicationStatus(ctx context.Context, applicationID string, status models.ApplicationStatus) (models.Application, error)
}

type State struct {
	Applications []models.Application
	IsLoading    bool
	Error        string
}

func Initial() State {
	return State{Applications: []models.Application{}}
}

type ApplyArgs struct {
	JobID       string
	CoverLetter string
}

type StatusArgs struct {
	ApplicationID string
	Status        models.ApplicationStatus
}

func FetchStudentApplications(client API) store.Thunk[string, api.ListResult[models.Application]] {
	return store.Thunk[string, api.ListResult[models.Application]]{
		Type: FetchStudentApplicationsType,
		Run: func(ctx context.Context, studentID string) (api.ListResult[models.Application], error) {
			return client.GetStudentApplications(ctx, studentID)
		},
	}
}

func FetchJobApplications(client API) store.Thunk[string, api.ListResult[models.Application]] {
	return store.Thunk[string, api.ListResult[models.Application]]{
		Type: FetchJobApplicationsType,
		Run: func(ctx context.Context, jobID string) (api.ListResult[models.Application], error) {
			return client.GetJobApplications(ctx, jobID)
		},
	}
}

func ApplyToJob(client API) store.Thunk[ApplyArgs, models.Application] {
	return store.Thunk[ApplyArgs, models.Application]{
		Type: ApplyToJobType,
		Run: func(ctx context.Context, args ApplyArgs) (models.Application, error) {
			return client.ApplyToJob(ctx, args.JobID, models.JobApplication{CoverLetter: args.CoverLetter})
		},
	}
}

func UpdateApplicationStatus(client API) store.Thunk[StatusArgs, models.Application] {
	return store.Thunk[StatusArgs, models.Application]{
		Type: UpdateApplicationStatusType,
		Run: func(ctx context.Context, args StatusArgs) (models.Application, error) {
			if err := validation.Validate(map[string]interface{}{
				"applicationId": args.ApplicationID,
				"status":        string(args.Status),
			}, validation.ApplicationStatusSchema); err != nil {
				return models.Application{}, err
			}
			return client.UpdateApplicationStatus(ctx, args.ApplicationID, args.Status)
		},
	}
}

func Reduce(state State, action store.Action) State {
	switch action.Type {
	case store.Pending(FetchStudentApplicationsType), store.Pending(FetchJobApplicationsType),
		store.Pending(ApplyToJobType), store.Pending(UpdateApplicationStatusType):
		state.IsLoading = true
		state.Error = ""

	case store.Rejected(FetchStudentApplicationsType), store.Rejected(FetchJobApplicationsType),
		store.Rejected(ApplyToJobType), store.Rejected(UpdateApplicationStatusType):
		state.IsLoading = false
		state.Error = action.Message()

	case store.Fulfilled(FetchStudentApplicationsType), store.Fulfilled(FetchJobApplicationsType):
		state.IsLoading = false
		result, _ := store.PayloadAs[api.ListResult[models.Application]](action)
		state.Applications = result.OrEmpty()

	case store.Fulfilled(ApplyToJobType):
		state.IsLoading = false
		app, _ := store.PayloadAs[models.Application](action)
		state.Applications = append([]models.Application{app}, state.Applications...)

	case store.Fulfilled(UpdateApplicationStatusType):
		state.IsLoading = false
		app, _ := store.PayloadAs[models.Application](action)
		for i, existing := range state.Applications {
			if existing.ID == app.ID {
				out := make([]models.Application, len(state.Applications))
				copy(out, state.Applications)
				out[i] = app
				state.Applications = out
				break
			}
		}
	}
	return state
}
