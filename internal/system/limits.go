package system

import (
	"syscall"

	"github.com/sirupsen/logrus"
)

// DefaultOpenFiles задаёт лимит дескрипторов, запрашиваемый при старте. Каждый
// PDF держит документ открытым, пока жив пул медиа.
const DefaultOpenFiles = 2048

// InitResourceLimits поднимает RLIMIT_NOFILE до DefaultOpenFiles, но не выше
// жёсткого лимита. Ошибки только логируются.
func InitResourceLimits(log *logrus.Entry) uint64 {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.WithError(err).Warn("[!] Не удалось получить лимит файлов")
		return 0
	}
	if rLimit.Cur >= DefaultOpenFiles {
		return rLimit.Cur
	}

	rLimit.Cur = DefaultOpenFiles
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.WithError(err).Warn("[!] Не удалось установить лимит файлов")
		return 0
	}
	log.WithField("limit", rLimit.Cur).Debug("[*] Системный лимит открытых файлов увеличен")
	return rLimit.Cur
}
