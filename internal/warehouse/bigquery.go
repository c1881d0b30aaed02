package warehouse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/andeantel/pdp-analytics/backend/internal/types"
	"github.com/rs/zerolog"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// BigQueryConfig holds warehouse connection settings.
type BigQueryConfig struct {
	ProjectID       string
	Dataset         string
	Table           string
	Location        string
	CredentialsPath string
}

// BigQuerySource queries the analytical warehouse for gestión activity.
type BigQuerySource struct {
	client *bigquery.Client
	cfg    BigQueryConfig
	logger zerolog.Logger
}

// NewBigQuerySource builds the warehouse client. When CredentialsPath is
// empty, application default credentials apply.
func NewBigQuerySource(ctx context.Context, cfg BigQueryConfig, logger zerolog.Logger) (*BigQuerySource, error) {
	var opts []option.ClientOption
	if cfg.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	}

	client, err := bigquery.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create BigQuery client: %w", err)
	}
	if cfg.Location != "" {
		client.Location = cfg.Location
	}

	logger.Info().Str("project", cfg.ProjectID).Str("dataset", cfg.Dataset).Msg("BigQuery source initialized")

	return &BigQuerySource{
		client: client,
		cfg:    cfg,
		logger: logger.With().Str("component", "bigquery_source").Logger(),
	}, nil
}

// gestionRow mirrors the warehouse schema for one gestión event.
type gestionRow struct {
	Fecha     civil.Date `bigquery:"fecha"`
	Hora      int64      `bigquery:"hora"`
	Usuario   string     `bigquery:"usuario"`
	DNI       string     `bigquery:"dni"`
	Nombre    string     `bigquery:"nombre_apellidos"`
	Resultado string     `bigquery:"resultado"`
	Cantidad  int64      `bigquery:"cantidad"`
	Duracion  int64      `bigquery:"duracion_segundos"`
}

// QueryPeriod fetches all gestión rows with fecha in [start, end].
func (s *BigQuerySource) QueryPeriod(ctx context.Context, start, end time.Time) ([]types.GestionRecord, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT fecha, hora, usuario, dni, nombre_apellidos, resultado, cantidad, duracion_segundos
		FROM `+"`%s.%s`"+`
		WHERE fecha BETWEEN @start_date AND @end_date
		ORDER BY fecha, hora, usuario`, s.cfg.Dataset, s.cfg.Table))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "start_date", Value: civil.DateOf(start)},
		{Name: "end_date", Value: civil.DateOf(end)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, classifyBigQueryError(err)
	}

	var records []types.GestionRecord
	for {
		var row gestionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, classifyBigQueryError(err)
		}
		records = append(records, types.GestionRecord{
			AgentEmail:      row.Usuario,
			AgentDNI:        row.DNI,
			AgentName:       row.Nombre,
			Date:            time.Date(row.Fecha.Year, row.Fecha.Month, row.Fecha.Day, 0, 0, 0, 0, time.UTC),
			Hour:            int(row.Hora),
			Outcome:         types.OutcomeCategory(row.Resultado),
			Count:           int(row.Cantidad),
			DurationSeconds: row.Duracion,
		})
	}

	s.logger.Debug().Int("rows", len(records)).Msg("warehouse query completed")
	return records, nil
}

// Close releases the underlying client.
func (s *BigQuerySource) Close() error {
	return s.client.Close()
}

// classifyBigQueryError sorts warehouse failures into retryable and
// fatal. Malformed queries (400) and permission problems are fatal;
// throttling and server-side errors are transient.
func classifyBigQueryError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return Transient(err)
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case 429, 500, 502, 503, 504:
			return Transient(err)
		default:
			return err
		}
	}

	// Unclassified transport errors are worth one more try.
	return Transient(err)
}
