package coldb

import (
	"fmt"
	"testing"

	"coldb/spec"
)

func TestDebugDrop(t *testing.T) {
	db, err := OpenMemory()
	if err != nil { t.Fatal(err) }
	defer db.Close()

	tb, err := db.CreateTable("users")
	if err != nil { t.Fatal(err) }
	fmt.Println("table top ref:", tb.TopRef())

	col, err := tb.AddColumn(spec.TypeString, "name")
	if err != nil { t.Fatal(err) }
	_ = col
	if err := tb.AddRow(); err != nil { t.Fatal(err) }
	if err := tb.SetString(col, 0, "ada"); err != nil { t.Fatal(err) }

	fmt.Println("names arr len before drop:", db.cat.names.Len())
	fmt.Println("tables arr len before drop:", db.cat.tables.Len())

	err = db.DropTable("users")
	fmt.Println("drop err:", err)
}
