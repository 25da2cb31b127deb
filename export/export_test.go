package export

import (
	"testing"

	"github.com/researchaccelerator-hub/page-scraper/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSV(t *testing.T) {
	tests := []struct {
		name    string
		records []model.Record
		want    string
	}{
		{name: "empty", records: nil, want: ""},
		{
			name: "posts",
			records: []model.Record{
				model.Post{ID: "1", Content: `say "hi", friend`, Date: "today", Likes: 3},
				model.Post{ID: "2", SourceURL: "https://example.com/p/2", Shares: 1},
			},
			want: "id,content,date,sourceUrl,likes,comments,shares\n" +
				`"1","say ""hi"", friend","today","",3,0,0` + "\n" +
				`"2","","","https://example.com/p/2",0,0,1`,
		},
		{
			name: "comments",
			records: []model.Record{
				model.Comment{ID: "c1", PostID: "9", Author: "Jane", Content: "multi\nline", Likes: 2},
			},
			want: "id,postId,author,authorId,content,date,likes\n" +
				`"c1","9","Jane","","multi` + "\n" + `line","",2`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CSV(tt.records))
		})
	}
}

func TestCSVMixedRecordsUseFirstHeader(t *testing.T) {
	out := CSV([]model.Record{
		model.Post{ID: "1"},
		model.Comment{ID: "c1", Likes: 4},
	})

	assert.Equal(t, "id,content,date,sourceUrl,likes,comments,shares\n"+
		`"1","","","",0,0,0`+"\n"+
		`"c1","","",,4,,`, out)
}

func TestJSON(t *testing.T) {
	data, err := JSON([]model.Record{model.Post{ID: "1", Content: "hi"}})
	require.NoError(t, err)

	assert.Equal(t, `[
  {
    "id": "1",
    "content": "hi",
    "date": "",
    "likes": 0,
    "comments": 0,
    "shares": 0
  }
]`, string(data))

	empty, err := JSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))
}
