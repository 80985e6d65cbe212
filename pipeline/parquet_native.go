//go:build !js

package pipeline

import (
	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

type pmcParquetRow struct {
	Date      string  `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Load      float64 `parquet:"name=load, type=DOUBLE"`
	Fitness   float64 `parquet:"name=fitness, type=DOUBLE"`
	Fatigue   float64 `parquet:"name=fatigue, type=DOUBLE"`
	Form      float64 `parquet:"name=form, type=DOUBLE"`
	Projected bool    `parquet:"name=projected, type=BOOLEAN"`
	Status    string  `parquet:"name=status, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
}

func marshalPMCParquet(rows []pmcRow) ([]byte, error) {
	fw := parquetbuffer.NewBufferFile()
	pw, err := writer.NewParquetWriter(fw, new(pmcParquetRow), 4)
	if err != nil {
		return nil, err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, r := range rows {
		row := pmcParquetRow{
			Date:      r.Date,
			Load:      r.Load,
			Fitness:   r.Fitness,
			Fatigue:   r.Fatigue,
			Form:      r.Form,
			Projected: r.Projected,
			Status:    r.Status,
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			return nil, err
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return append([]byte(nil), fw.Bytes()...), nil
}
