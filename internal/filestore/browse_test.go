package filestore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/djklmr2025/cosmos-den/internal/fault"
)

func seedProject(t *testing.T, root string) {
	t.Helper()
	writeFile(t, root, "README.md", "# demo\n")
	writeFile(t, root, "app.py", "import os\nprint('TODO fix')\n")
	writeFile(t, root, "src/index.js", "// todo: wire\nconsole.log('hi')\n")
	writeFile(t, root, "src/util/strings.js", "export const x = 1\n")
	writeFile(t, root, "node_modules/react/index.js", "// todo in dependency\n")
	writeFile(t, root, "__pycache__/app.cpython-312.pyc", "todo")
	writeFile(t, root, ".env", "TOKEN=todo\n")
	writeFile(t, root, "Zeta.txt", "")
	writeFile(t, root, "logo.bin", "todo")
}

func TestList(t *testing.T) {
	s, root := newTestStore(t)
	seedProject(t, root)

	res, err := s.List(".", ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var names []string
	for _, e := range res.Entries {
		names = append(names, e.Name)
	}
	want := []string{"src", "app.py", "logo.bin", "README.md", "Zeta.txt"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names = %v, want %v", names, want)
			break
		}
	}
	if res.Count != len(want) {
		t.Errorf("Count = %d", res.Count)
	}

	hiddenRes, err := s.List(".", ListOptions{IncludeHidden: true})
	if err != nil {
		t.Fatal(err)
	}
	foundEnv := false
	for _, e := range hiddenRes.Entries {
		if e.Name == ".env" {
			foundEnv = true
		}
		if e.Name == "node_modules" || e.Name == "__pycache__" {
			t.Errorf("dependency directory %q listed", e.Name)
		}
	}
	if !foundEnv {
		t.Error("IncludeHidden did not list .env")
	}
}

func TestList_Recursive(t *testing.T) {
	s, root := newTestStore(t)
	seedProject(t, root)

	res, err := s.List(".", ListOptions{Recursive: true})
	if err != nil {
		t.Fatal(err)
	}
	paths := map[string]bool{}
	for _, e := range res.Entries {
		paths[e.Path] = true
	}
	for _, p := range []string{"src/util/strings.js", "src/util", "app.py"} {
		if !paths[p] {
			t.Errorf("missing %s in %v", p, paths)
		}
	}
	for _, p := range []string{"node_modules/react/index.js", ".env"} {
		if paths[p] {
			t.Errorf("unexpected %s", p)
		}
	}
}

func TestList_NotADirectory(t *testing.T) {
	s, root := newTestStore(t)
	writeFile(t, root, "a.txt", "x")
	_, err := s.List("a.txt", ListOptions{})
	wantKind(t, err, fault.KindInvalidRequest)
	_, err = s.List("missing", ListOptions{})
	wantKind(t, err, fault.KindNotFound)
}

func TestSearch_ByName(t *testing.T) {
	s, root := newTestStore(t)
	seedProject(t, root)

	res, err := s.Search("*.js", SearchOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Count != 2 {
		t.Errorf("Count = %d, results %+v", res.Count, res.Results)
	}
	for _, hit := range res.Results {
		if hit.Path == "node_modules/react/index.js" {
			t.Error("dependency directory searched")
		}
	}

	_, err = s.Search("[", SearchOptions{})
	wantKind(t, err, fault.KindInvalidRequest)
}

func TestSearch_Content(t *testing.T) {
	s, root := newTestStore(t)
	seedProject(t, root)

	res, err := s.Search("todo", SearchOptions{InContent: true})
	if err != nil {
		t.Fatal(err)
	}
	got := map[string]int{}
	for _, hit := range res.Results {
		got[hit.Path] = hit.Matches[0].Line
	}
	if got["app.py"] != 2 || got["src/index.js"] != 1 {
		t.Errorf("unexpected hits %v", got)
	}
	if _, ok := got["logo.bin"]; ok {
		t.Error("file with disallowed extension searched")
	}
	if len(got) != 2 {
		t.Errorf("hits = %v", got)
	}

	_, err = s.Search("(", SearchOptions{InContent: true})
	wantKind(t, err, fault.KindInvalidRequest)
}

func TestSearch_CapsMatchesPerFile(t *testing.T) {
	s, root := newTestStore(t)
	content := ""
	for i := 0; i < 25; i++ {
		content += "match\n"
	}
	writeFile(t, root, "many.txt", content)

	res, err := s.Search("MATCH", SearchOptions{InContent: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Results) != 1 || len(res.Results[0].Matches) != MaxMatchesPerFile {
		t.Errorf("unexpected results %+v", res.Results)
	}
}

func TestTree(t *testing.T) {
	s, root := newTestStore(t)
	writeFile(t, root, "a/b/c/d/deep.txt", "x")
	writeFile(t, root, "a/top.md", "x")
	writeFile(t, root, "node_modules/x/index.js", "x")

	tree, err := s.Tree(".", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(tree.Children) != 1 || tree.Children[0].Name != "a" {
		t.Fatalf("root children = %+v", tree.Children)
	}
	a := tree.Children[0]
	if a.Children[0].Name != "b" || a.Children[1].Name != "top.md" || a.Children[1].Extension != ".md" {
		t.Fatalf("a children = %+v", a.Children)
	}
	b := a.Children[0]
	c := b.Children[0]
	if c.Name != "c" || len(c.Children) != 1 || c.Children[0].Type != TypeMore {
		t.Errorf("expected c to be truncated, got %+v", c)
	}

	visits := s.NavigationHistory()
	if len(visits) != 1 || visits[0].Path != "." {
		t.Errorf("tree not recorded in navigation history: %+v", visits)
	}
}

func TestTree_SymlinkCycleNotFollowed(t *testing.T) {
	s, root := newTestStore(t)
	writeFile(t, root, "a/file.txt", "x")
	if err := os.Symlink(filepath.Join(root, "a"), filepath.Join(root, "a", "loop")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	tree, err := s.Tree(".", 50)
	if err != nil {
		t.Fatal(err)
	}
	var loop *TreeNode
	for _, child := range tree.Children[0].Children {
		if child.Name == "loop" {
			loop = child
		}
	}
	if loop == nil || len(loop.Children) != 1 || loop.Children[0].Type != TypeMore {
		t.Errorf("symlinked directory should be depth-exhausted, got %+v", loop)
	}
}

func TestTree_SymlinkedDirectorySortsWithDirectories(t *testing.T) {
	s, root := newTestStore(t)
	writeFile(t, root, "zdir/inner.txt", "x")
	writeFile(t, root, "a.txt", "x")
	if err := os.Symlink(filepath.Join(root, "zdir"), filepath.Join(root, "blink")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	tree, err := s.Tree(".", 3)
	if err != nil {
		t.Fatal(err)
	}

	want := []struct{ name, typ string }{
		{"blink", TypeDirectory},
		{"zdir", TypeDirectory},
		{"a.txt", TypeFile},
	}
	if len(tree.Children) != len(want) {
		t.Fatalf("children = %+v", tree.Children)
	}
	for i, w := range want {
		got := tree.Children[i]
		if got.Name != w.name || got.Type != w.typ {
			t.Errorf("child %d = %s (%s), want %s (%s)", i, got.Name, got.Type, w.name, w.typ)
		}
	}
}

func TestInfo(t *testing.T) {
	s, root := newTestStore(t)
	writeFile(t, root, "notes.txt", "héllo\nworld\n")
	writeFile(t, root, "blob.bin", "zz")

	info, err := s.Info("notes.txt")
	if err != nil {
		t.Fatal(err)
	}
	if info.Type != TypeFile || info.Size != 13 || info.SizeHuman != "13 B" || info.Extension != ".txt" {
		t.Errorf("unexpected info %+v", info)
	}
	if info.Lines == nil || *info.Lines != 2 || info.Characters == nil || *info.Characters != 12 {
		t.Errorf("text stats = %v %v", info.Lines, info.Characters)
	}
	if len(info.Digest) != 64 {
		t.Errorf("Digest = %q", info.Digest)
	}

	blob, err := s.Info("blob.bin")
	if err != nil {
		t.Fatal(err)
	}
	if blob.Lines != nil {
		t.Error("stats computed for disallowed extension")
	}

	dir, err := s.Info(".")
	if err != nil || dir.Type != TypeDirectory {
		t.Errorf("dir info = %+v, %v", dir, err)
	}
}

func TestWatchAndFavorites(t *testing.T) {
	s, root := newTestStore(t)
	writeFile(t, root, "src/app.js", "x")

	w, err := s.Watch("src/app.js")
	if err != nil || !w.ReadyToWatch {
		t.Fatalf("Watch = %+v, %v", w, err)
	}
	_, err = s.Watch("src")
	wantKind(t, err, fault.KindInvalidRequest)

	if res, err := s.AddFavorite("src"); err != nil || !res.Changed {
		t.Fatalf("AddFavorite = %+v, %v", res, err)
	}
	if res, _ := s.AddFavorite("./src/"); res.Changed {
		t.Error("equivalent path added twice")
	}
	_, err = s.AddFavorite("missing")
	wantKind(t, err, fault.KindNotFound)
	_, err = s.AddFavorite("../outside")
	wantKind(t, err, fault.KindPolicyRejected)

	if got := s.Favorites(); len(got) != 1 || got[0] != "src" {
		t.Errorf("Favorites = %v", got)
	}
	if res, err := s.RemoveFavorite("src"); err != nil || !res.Changed {
		t.Errorf("RemoveFavorite = %+v, %v", res, err)
	}
	if res, err := s.RemoveFavorite("src"); err != nil || res.Changed {
		t.Errorf("second RemoveFavorite = %+v, %v", res, err)
	}

	if visits := s.NavigationHistory(); len(visits) != 1 || visits[0].Path != "src/app.js" {
		t.Errorf("NavigationHistory = %+v", visits)
	}
}
