// Package dynamo implements the mirror's backing contract on DynamoDB.
//
// DynamoDB has no server-side predicate DML, so UpdateWhere and
// DeleteWhere scan for the matching items first and then mutate them
// one by one, keyed by the table's primary-key attributes. The mirror's
// consistency contract is unaffected: it still forwards before it
// applies locally.
package dynamo

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/rowmirror/rowmirror/internal/row"
	"github.com/rowmirror/rowmirror/internal/schema"
	"github.com/rowmirror/rowmirror/internal/value"
)

// Store is a DynamoDB-backed table store. It satisfies mirror.Backing
// for the one table definition it was constructed with.
type Store struct {
	client *dynamodb.Client
	table  *schema.Table
}

// New creates a Store over an existing DynamoDB client.
func New(client *dynamodb.Client, table *schema.Table) *Store {
	return &Store{client: client, table: table}
}

// Connect loads the default AWS configuration and returns a Store.
func Connect(ctx context.Context, table *schema.Table) (*Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return New(dynamodb.NewFromConfig(cfg), table), nil
}

func (s *Store) checkTable(table string) error {
	if table != s.table.Name() {
		return fmt.Errorf("store is bound to table %q, got %q", s.table.Name(), table)
	}
	return nil
}

// Insert writes one item.
func (s *Store) Insert(ctx context.Context, table string, cols []*schema.Column, vals []value.Value) error {
	if err := s.checkTable(table); err != nil {
		return err
	}
	if len(cols) != len(vals) {
		return fmt.Errorf("insert %s: %d columns, %d values", table, len(cols), len(vals))
	}
	item := make(map[string]types.AttributeValue, len(cols))
	for i, col := range cols {
		item[col.Name()] = encodeValue(vals[i])
	}
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

// Update applies assign to every item of the table.
func (s *Store) Update(ctx context.Context, table string, assign *row.Row) error {
	return s.updateWhere(ctx, table, assign, "")
}

// UpdateWhere applies assign to the items matching the predicate.
func (s *Store) UpdateWhere(ctx context.Context, table string, assign *row.Row, predicate string) error {
	return s.updateWhere(ctx, table, assign, predicate)
}

func (s *Store) updateWhere(ctx context.Context, table string, assign *row.Row, predicate string) error {
	if err := s.checkTable(table); err != nil {
		return err
	}
	keys, err := s.scanKeys(ctx, predicate)
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}

	expr, names, values, err := buildAssignExpression(assign)
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	for _, key := range keys {
		_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:                 aws.String(table),
			Key:                       key,
			UpdateExpression:          aws.String(expr),
			ExpressionAttributeNames:  names,
			ExpressionAttributeValues: values,
		})
		if err != nil {
			return fmt.Errorf("update %s: %w", table, err)
		}
	}
	return nil
}

// Select returns the rows matching the predicate ("" selects all).
// DynamoDB scans carry no inherent order; results are sorted by key
// fingerprint so repeated scans of an unchanged table enumerate rows
// identically.
func (s *Store) Select(ctx context.Context, table string, predicate string, cols []*schema.Column) ([]*row.Row, error) {
	if err := s.checkTable(table); err != nil {
		return nil, err
	}
	items, err := s.scan(ctx, predicate)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}

	out := make([]*row.Row, 0, len(items))
	for _, item := range items {
		r, err := decodeItem(item, cols)
		if err != nil {
			return nil, fmt.Errorf("select %s: %w", table, err)
		}
		out = append(out, r)
	}
	sortRows(out)
	return out, nil
}

// DeleteWhere removes the items matching the predicate.
func (s *Store) DeleteWhere(ctx context.Context, table string, predicate string) error {
	if err := s.checkTable(table); err != nil {
		return err
	}
	keys, err := s.scanKeys(ctx, predicate)
	if err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	for _, key := range keys {
		_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(s.table.Name()),
			Key:       key,
		})
		if err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	return nil
}

// scan runs a full or filtered paginated scan.
func (s *Store) scan(ctx context.Context, predicate string) ([]map[string]types.AttributeValue, error) {
	input := &dynamodb.ScanInput{TableName: aws.String(s.table.Name())}
	if predicate != "" {
		filter, names, values, err := translatePredicate(predicate)
		if err != nil {
			return nil, err
		}
		input.FilterExpression = aws.String(filter)
		input.ExpressionAttributeNames = names
		input.ExpressionAttributeValues = values
	}

	var items []map[string]types.AttributeValue
	for {
		out, err := s.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		items = append(items, out.Items...)
		if out.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	return items, nil
}

// scanKeys scans for matching items and projects their primary-key
// attributes for follow-up UpdateItem/DeleteItem calls.
func (s *Store) scanKeys(ctx context.Context, predicate string) ([]map[string]types.AttributeValue, error) {
	pks := s.table.PrimaryKeyColumns()
	if len(pks) == 0 {
		return nil, fmt.Errorf("table %q declares no primary key; predicate mutations need one", s.table.Name())
	}
	items, err := s.scan(ctx, predicate)
	if err != nil {
		return nil, err
	}
	keys := make([]map[string]types.AttributeValue, 0, len(items))
	for _, item := range items {
		key := make(map[string]types.AttributeValue, len(pks))
		for _, col := range pks {
			av, ok := item[col.Name()]
			if !ok {
				return nil, fmt.Errorf("item missing key attribute %q", col.Name())
			}
			key[col.Name()] = av
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// buildAssignExpression renders a row of assignments into a SET update
// expression with placeholder names and values.
func buildAssignExpression(assign *row.Row) (string, map[string]string, map[string]types.AttributeValue, error) {
	expr := "SET "
	names := make(map[string]string, assign.Len())
	values := make(map[string]types.AttributeValue, assign.Len())
	for i := range assign.Len() {
		col, err := assign.ColumnAt(i)
		if err != nil {
			return "", nil, nil, err
		}
		v, err := assign.ValueAt(i)
		if err != nil {
			return "", nil, nil, err
		}
		namePH := fmt.Sprintf("#a%d", i)
		valuePH := fmt.Sprintf(":a%d", i)
		if i > 0 {
			expr += ", "
		}
		expr += namePH + " = " + valuePH
		names[namePH] = col.Name()
		values[valuePH] = encodeValue(v)
	}
	return expr, names, values, nil
}

// sortRows orders rows by key fingerprint, falling back to the rendered
// row for keyless tables.
func sortRows(rows []*row.Row) {
	keyOf := func(r *row.Row) string {
		if k, ok := r.Key(); ok {
			return k.Fingerprint()
		}
		return r.String()
	}
	slices.SortFunc(rows, func(a, b *row.Row) int {
		return strings.Compare(keyOf(a), keyOf(b))
	})
}
