package service

import (
	"errors"

	"github.com/uni-dcs/records-api/internal/repository"
)

func isDuplicate(err error) bool {
	return errors.Is(err, repository.ErrDuplicate)
}
