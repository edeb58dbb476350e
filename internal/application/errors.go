package application

import (
	stderrors "errors"
	"net/http"

	"github.com/wms-platform/posting-service/internal/domain"
	"github.com/wms-platform/posting-service/pkg/errors"
)

// toAppError maps posting failures onto API error codes
func toAppError(err error) *errors.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr
	}

	switch {
	case stderrors.Is(err, domain.ErrDocumentNotFound),
		stderrors.Is(err, domain.ErrJournalNotFound),
		stderrors.Is(err, domain.ErrProductNotFound):
		return errors.NewAppError(errors.CodeNotFound, err.Error(), http.StatusNotFound).Wrap(err)
	case stderrors.Is(err, domain.ErrAlreadyPosted),
		stderrors.Is(err, domain.ErrNotPosted),
		stderrors.Is(err, domain.ErrConcurrentModification):
		return errors.ErrConflict(err.Error()).Wrap(err)
	case domain.IsConfigurationError(err):
		return errors.ErrConfiguration(err.Error()).Wrap(err)
	case domain.IsDataInconsistency(err):
		return errors.ErrDataInconsistency(err.Error()).Wrap(err)
	}
	return errors.ErrInternal("").Wrap(err)
}
