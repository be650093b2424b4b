package implementation

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	hsmodels "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Models"
)

type PostgresFirmwareRepository struct {
	db *sql.DB
}

func NewPostgresFirmwareRepository(db *sql.DB) *PostgresFirmwareRepository {
	return &PostgresFirmwareRepository{db: db}
}

const firmwareColumns = `id, version, description, release_notes, file_path, file_size,
	checksum, is_stable, is_beta, min_compatible_version, target_device_models,
	created_by, release_date`

func (r *PostgresFirmwareRepository) CreateVersion(ctx context.Context, fw hsmodels.FirmwareVersion) error {
	query := `
		INSERT INTO firmware_versions (id, version, description, release_notes, file_path,
			file_size, checksum, is_stable, is_beta, min_compatible_version,
			target_device_models, created_by, release_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(ctx, query,
		fw.ID, fw.Version, fw.Description, fw.ReleaseNotes, fw.FilePath,
		fw.FileSize, fw.Checksum, fw.IsStable, fw.IsBeta, fw.MinCompatibleVersion,
		pq.Array(fw.TargetDeviceModels), fw.CreatedBy, fw.ReleaseDate)
	return err
}

func (r *PostgresFirmwareRepository) GetVersion(ctx context.Context, version string) (*hsmodels.FirmwareVersion, error) {
	query := `SELECT ` + firmwareColumns + ` FROM firmware_versions WHERE version = $1`

	fw, err := scanFirmware(r.db.QueryRowContext(ctx, query, version))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return fw, nil
}

func (r *PostgresFirmwareRepository) ListVersions(ctx context.Context) ([]hsmodels.FirmwareVersion, error) {
	query := `SELECT ` + firmwareColumns + ` FROM firmware_versions ORDER BY release_date DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []hsmodels.FirmwareVersion
	for rows.Next() {
		fw, err := scanFirmware(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, *fw)
	}
	return versions, rows.Err()
}

func scanFirmware(row rowScanner) (*hsmodels.FirmwareVersion, error) {
	var fw hsmodels.FirmwareVersion
	err := row.Scan(&fw.ID, &fw.Version, &fw.Description, &fw.ReleaseNotes, &fw.FilePath,
		&fw.FileSize, &fw.Checksum, &fw.IsStable, &fw.IsBeta, &fw.MinCompatibleVersion,
		pq.Array(&fw.TargetDeviceModels), &fw.CreatedBy, &fw.ReleaseDate)
	if err != nil {
		return nil, err
	}
	return &fw, nil
}
