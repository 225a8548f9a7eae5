package sqlxrepos

import (
	"database/sql"

	"github.com/pkg/errors"

	"github.com/KushalGupta-07/Smart-Admission-System/core"
)

type repository struct {
	db core.DBExecutor
}

// getExec returns the transaction passed by the service, if any.
func (repo repository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.db
}

// trapNoRowsErr maps psql "no rows" err to notFound
func trapNoRowsErr(err, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}
