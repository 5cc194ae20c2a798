package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ebogdum/imagedeck/metadata"
)

// CreateFolder stores a new folder item
func (a *Adapter) CreateFolder(ctx context.Context, in metadata.FolderInput) (*metadata.Folder, error) {
	if in.Name == "" {
		return nil, metadata.Invalid("folder name is required")
	}

	now := a.now()
	folder := &metadata.Folder{
		ID:        uuid.NewString(),
		Name:      in.Name,
		ParentID:  in.ParentID,
		CreatedAt: in.CreatedAt,
		UpdatedAt: in.UpdatedAt,
	}
	if folder.ParentID == "" {
		folder.ParentID = metadata.RootID
	}
	if folder.CreatedAt.IsZero() {
		folder.CreatedAt = now
	}
	if folder.UpdatedAt.IsZero() {
		folder.UpdatedAt = now
	}

	item, err := dynamodbattribute.MarshalMap(folder)
	if err != nil {
		return nil, fmt.Errorf("failed to encode folder: %w", err)
	}

	_, err = a.db.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(a.foldersTable),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return nil, metadata.WrapStorage(BackendName, "CreateFolder", err)
	}

	a.logger.Debug("Folder created in DynamoDB",
		zap.String("table", a.foldersTable),
		zap.String("id", folder.ID))

	return folder, nil
}

// GetFolder reads one folder item
func (a *Adapter) GetFolder(ctx context.Context, id string) (*metadata.Folder, error) {
	out, err := a.db.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(a.foldersTable),
		Key:            idKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, metadata.WrapStorage(BackendName, "GetFolder", err)
	}
	if len(out.Item) == 0 {
		return nil, metadata.ErrNotFound
	}

	var folder metadata.Folder
	if err := dynamodbattribute.UnmarshalMap(out.Item, &folder); err != nil {
		return nil, fmt.Errorf("failed to decode folder: %w", err)
	}
	return &folder, nil
}

// ListFolders scans the folders table and returns the requested page
func (a *Adapter) ListFolders(ctx context.Context, parentID string, opts metadata.ListOptions) (*metadata.FolderPage, error) {
	folders, err := a.scanFolders(ctx, parentID)
	if err != nil {
		return nil, err
	}

	page, lastKey, err := metadata.Paginate(folders, opts)
	if err != nil {
		return nil, err
	}
	return &metadata.FolderPage{Folders: page, LastKey: lastKey}, nil
}

// UpdateFolder sets the patched attributes of an existing folder
func (a *Adapter) UpdateFolder(ctx context.Context, id string, patch metadata.FolderPatch) (*metadata.Folder, error) {
	if patch.Name != nil && *patch.Name == "" {
		return nil, metadata.Invalid("folder name must not be empty")
	}

	set := map[string]interface{}{"updatedAt": a.now()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.ParentID != nil {
		set["parentId"] = *patch.ParentID
	}

	input, err := updateInput(a.foldersTable, id, set)
	if err != nil {
		return nil, err
	}

	out, err := a.db.UpdateItemWithContext(ctx, input)
	if err != nil {
		return nil, storageErr("UpdateFolder", err)
	}

	var folder metadata.Folder
	if err := dynamodbattribute.UnmarshalMap(out.Attributes, &folder); err != nil {
		return nil, fmt.Errorf("failed to decode folder: %w", err)
	}

	a.logger.Debug("Folder updated in DynamoDB",
		zap.String("table", a.foldersTable),
		zap.String("id", id))

	return &folder, nil
}

// DeleteFolder removes a folder item; DeleteItem on a missing key succeeds
func (a *Adapter) DeleteFolder(ctx context.Context, id string) error {
	_, err := a.db.DeleteItemWithContext(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(a.foldersTable),
		Key:       idKey(id),
	})
	if err != nil {
		return metadata.WrapStorage(BackendName, "DeleteFolder", err)
	}

	a.logger.Debug("Folder deleted from DynamoDB",
		zap.String("table", a.foldersTable),
		zap.String("id", id))

	return nil
}

// ListFolderContents scans child folders and images concurrently
func (a *Adapter) ListFolderContents(ctx context.Context, folderID string, opts metadata.ListOptions) (*metadata.FolderContents, error) {
	var folders *metadata.FolderPage
	var images *metadata.ImagePage

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		folders, err = a.ListFolders(gctx, folderID, opts)
		return err
	})
	g.Go(func() error {
		var err error
		images, err = a.ListImages(gctx, folderID, opts)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &metadata.FolderContents{Folders: folders.Folders, Images: images.Images}, nil
}

func (a *Adapter) scanFolders(ctx context.Context, parentID string) ([]metadata.Folder, error) {
	items, err := a.scanAll(ctx, a.foldersTable, "parentId", parentID)
	if err != nil {
		return nil, metadata.WrapStorage(BackendName, "ListFolders", err)
	}

	folders := make([]metadata.Folder, 0, len(items))
	if err := dynamodbattribute.UnmarshalListOfMaps(items, &folders); err != nil {
		return nil, fmt.Errorf("failed to decode folders: %w", err)
	}
	return folders, nil
}

// scanAll reads every item of a table, optionally filtered on one attribute,
// following LastEvaluatedKey until the scan is exhausted
func (a *Adapter) scanAll(ctx context.Context, table, attr, value string) ([]map[string]*dynamodb.AttributeValue, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(table),
	}
	if value != "" {
		input.FilterExpression = aws.String("#scope = :scope")
		input.ExpressionAttributeNames = map[string]*string{"#scope": aws.String(attr)}
		input.ExpressionAttributeValues = map[string]*dynamodb.AttributeValue{
			":scope": {S: aws.String(value)},
		}
	}

	var items []map[string]*dynamodb.AttributeValue
	for {
		out, err := a.db.ScanWithContext(ctx, input)
		if err != nil {
			return nil, err
		}
		items = append(items, out.Items...)

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	return items, nil
}

func idKey(id string) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{"id": {S: aws.String(id)}}
}

// updateInput builds a conditional SET update for the given attributes.
// Every attribute name goes through a placeholder since "name" is reserved.
func updateInput(table, id string, set map[string]interface{}) (*dynamodb.UpdateItemInput, error) {
	names := make(map[string]*string, len(set))
	values := make(map[string]*dynamodb.AttributeValue, len(set))
	expr := ""
	for attr, v := range set {
		av, err := dynamodbattribute.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", attr, err)
		}
		names["#"+attr] = aws.String(attr)
		values[":"+attr] = av
		if expr != "" {
			expr += ", "
		}
		expr += fmt.Sprintf("#%s = :%s", attr, attr)
	}

	return &dynamodb.UpdateItemInput{
		TableName:                 aws.String(table),
		Key:                       idKey(id),
		UpdateExpression:          aws.String("SET " + expr),
		ConditionExpression:       aws.String("attribute_exists(id)"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ReturnValues:              aws.String(dynamodb.ReturnValueAllNew),
	}, nil
}
