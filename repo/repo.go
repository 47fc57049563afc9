package repo

import (
	"fmt"
	"io/ioutil"
	"os"
	"path"
	"strconv"

	"github.com/op/go-logging"
	"github.com/veilledger/veil/database"
	"github.com/veilledger/veil/database/sqlitedb"
	"github.com/veilledger/veil/models"
)

const (
	// defaultRepoVersion is the current repo version used for migrations.
	defaultRepoVersion = 0

	// versionFileName is the name of the version file.
	versionFileName = "version"
)

var log = logging.MustGetLogger("REPO")

// Repo is a representation of a veil wallet data directory.
// In this we store:
// - The veil.conf file
// - The log directory
// - The wallet database
type Repo struct {
	db      database.Database
	dataDir string
}

// NewRepo returns a new Repo for the given data directory. It will
// be initialized if it is not already.
func NewRepo(dataDir string) (*Repo, error) {
	return newRepo(dataDir, false)
}

// NewMemoryRepo behaves the same as NewRepo but holds the database
// in memory. This is useful for testing.
func NewMemoryRepo(dataDir string) (*Repo, error) {
	return newRepo(dataDir, true)
}

// DB returns the database implementation.
func (r *Repo) DB() database.Database {
	return r.db
}

// DataDir returns the data directory associated with this repo.
func (r *Repo) DataDir() string {
	return r.dataDir
}

// Close will close the repo and associated databases.
func (r *Repo) Close() {
	r.db.Close()
}

// DestroyRepo deletes the entire directory. Do NOT use this unless you are
// positive you want to wipe all data.
func (r *Repo) DestroyRepo() error {
	if err := r.db.Close(); err != nil {
		return err
	}
	return os.RemoveAll(r.dataDir)
}

// writeVersion writes the version number to file.
func (r *Repo) writeVersion(version int) error {
	versionStr := strconv.Itoa(version)
	return ioutil.WriteFile(path.Join(r.dataDir, versionFileName), []byte(versionStr), os.ModePerm)
}

func newRepo(dataDir string, inMemoryDB bool) (*Repo, error) {
	if err := checkWriteable(dataDir); err != nil {
		return nil, err
	}

	var (
		db  database.Database
		err error
	)
	if inMemoryDB {
		db, err = sqlitedb.NewMemoryDB()
	} else {
		db, err = sqlitedb.NewSqliteDB(dataDir)
	}
	if err != nil {
		return nil, err
	}

	if err := autoMigrateDatabase(db); err != nil {
		return nil, err
	}

	r := &Repo{
		dataDir: dataDir,
		db:      db,
	}
	if _, err := os.Stat(path.Join(dataDir, versionFileName)); os.IsNotExist(err) {
		if err := r.writeVersion(defaultRepoVersion); err != nil {
			return nil, err
		}
		log.Infof("Initialized new wallet repo at %s", dataDir)
	}
	return r, nil
}

func checkWriteable(dir string) error {
	_, err := os.Stat(dir)
	if err == nil {
		// Directory exists, make sure we can write to it.
		testfile := path.Join(dir, "test")
		fi, err := os.Create(testfile)
		if err != nil {
			if os.IsPermission(err) {
				return fmt.Errorf("%s is not writeable by the current user", dir)
			}
			return fmt.Errorf("unexpected error while checking writeablility of repo root: %s", err)
		}
		fi.Close()
		return os.Remove(testfile)
	}

	if os.IsNotExist(err) {
		// Directory does not exist, check that we can create it.
		return os.MkdirAll(dir, 0775)
	}

	if os.IsPermission(err) {
		return fmt.Errorf("cannot write to %s, incorrect permissions", err)
	}

	return err
}

func autoMigrateDatabase(db database.Database) error {
	dbModels := []interface{}{
		&models.Identity{},
		&models.Asset{},
		&models.Txo{},
		&models.BuilderRecord{},
		&models.TransactionRecord{},
	}

	return db.Update(func(tx database.Tx) error {
		for _, m := range dbModels {
			if err := tx.Migrate(m); err != nil {
				return err
			}
		}
		return nil
	})
}
