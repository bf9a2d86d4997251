package dynamo

import (
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/rowmirror/rowmirror/internal/row"
	"github.com/rowmirror/rowmirror/internal/schema"
	"github.com/rowmirror/rowmirror/internal/value"
)

// encodeValue converts a Value to its DynamoDB attribute. Time is
// rendered RFC3339Nano explicitly; attributevalue would flatten a
// time.Time into its struct fields.
func encodeValue(v value.Value) types.AttributeValue {
	if t, ok := v.TimeVal(); ok {
		return &types.AttributeValueMemberS{Value: t.Format(time.RFC3339Nano)}
	}
	av, err := attributevalue.Marshal(v.Raw())
	if err != nil {
		// Unreachable: Raw() only yields int64/float64/string/bool.
		panic(err)
	}
	return av
}

// decodeValue converts a DynamoDB attribute back under the column's
// declared kind.
func decodeValue(k value.Kind, av types.AttributeValue) (value.Value, error) {
	switch member := av.(type) {
	case *types.AttributeValueMemberN:
		switch k {
		case value.KindInt:
			n, err := strconv.ParseInt(member.Value, 10, 64)
			if err != nil {
				return value.Value{}, fmt.Errorf("decode N %q as int: %w", member.Value, err)
			}
			return value.Int(n), nil
		case value.KindFloat:
			f, err := strconv.ParseFloat(member.Value, 64)
			if err != nil {
				return value.Value{}, fmt.Errorf("decode N %q as float: %w", member.Value, err)
			}
			return value.Float(f), nil
		}
	case *types.AttributeValueMemberS:
		switch k {
		case value.KindText:
			return value.Text(member.Value), nil
		case value.KindTime:
			t, err := time.Parse(time.RFC3339Nano, member.Value)
			if err != nil {
				return value.Value{}, fmt.Errorf("decode S %q as time: %w", member.Value, err)
			}
			return value.Time(t), nil
		}
	case *types.AttributeValueMemberBOOL:
		if k == value.KindBool {
			return value.Bool(member.Value), nil
		}
	}
	return value.Value{}, fmt.Errorf("attribute %T does not decode as %s", av, k)
}

// decodeItem assembles a row from an item using the canonical column
// descriptors, so derived keys line up with the mirror's.
func decodeItem(item map[string]types.AttributeValue, cols []*schema.Column) (*row.Row, error) {
	cells := make([]*schema.Cell, len(cols))
	for i, col := range cols {
		av, ok := item[col.Name()]
		if !ok {
			return nil, fmt.Errorf("item missing attribute %q", col.Name())
		}
		v, err := decodeValue(col.Kind(), av)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", col.Name(), err)
		}
		cells[i] = schema.NewCell(col, v)
	}
	return row.New(cells)
}
