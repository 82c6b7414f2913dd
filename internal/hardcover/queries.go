package hardcover

const meQuery = `
query Me {
	me {
		id
		username
		name
		books_count
	}
}`

const bookFields = `
		id
		title
		slug
		release_date
		contributions {
			author {
				id
				name
			}
		}
		editions {
			id
			isbn_13
			isbn_10
			title
			pages
		}`

const bookByIDQuery = `
query BookById($id: Int!) {
	books(where: {id: {_eq: $id}}) {` + bookFields + `
	}
}`

const bookBySlugQuery = `
query BookBySlug($slug: String!) {
	books(where: {slug: {_eq: $slug}}) {` + bookFields + `
	}
}`

const bookByISBN13Query = `
query BookByISBN($isbn: String!) {
	editions(where: {isbn_13: {_eq: $isbn}}, limit: 1) {
		id
		isbn_10
		isbn_13
		title
		book {` + bookFields + `
		}
	}
}`

const bookByISBN10Query = `
query BookByISBN10($isbn: String!) {
	editions(where: {isbn_10: {_eq: $isbn}}, limit: 1) {
		id
		isbn_10
		isbn_13
		title
		book {` + bookFields + `
		}
	}
}`

const userBookFields = `
		id
		book_id
		edition_id
		status_id
		rating
		review_raw
		created_at
		updated_at
		user_book_reads(order_by: {started_at: desc}) {
			id
			started_at
			finished_at
			paused_at
			progress
			progress_pages
			edition_id
		}
		edition {
			id
			isbn_13
			isbn_10
			title
			pages
		}
		book {` + bookFields + `
		}`

const userBooksQuery = `
query UserBooks($user_id: Int!, $limit: Int!, $offset: Int!) {
	user_books(where: {user_id: {_eq: $user_id}}, limit: $limit, offset: $offset, order_by: {id: asc}) {` + userBookFields + `
	}
}`

const userBookByBookIDQuery = `
query UserBookByBookId($user_id: Int!, $book_id: Int!) {
	user_books(where: {user_id: {_eq: $user_id}, book_id: {_eq: $book_id}}, limit: 1) {` + userBookFields + `
	}
}`

const insertUserBookMutation = `
mutation InsertUserBook($object: UserBookCreateInput!) {
	insert_user_book(object: $object) {
		id
		error
	}
}`

const updateUserBookMutation = `
mutation UpdateUserBook($id: Int!, $object: UserBookUpdateInput!) {
	update_user_book(id: $id, object: $object) {
		id
		error
	}
}`

const insertReadMutation = `
mutation InsertUserBookRead($user_book_id: Int!, $user_book_read: DatesReadInput!) {
	insert_user_book_read(user_book_id: $user_book_id, user_book_read: $user_book_read) {
		id
		error
	}
}`

const updateReadMutation = `
mutation UpdateUserBookRead($id: Int!, $object: DatesReadInput!) {
	update_user_book_read(id: $id, object: $object) {
		id
		error
	}
}`

const deleteUserBookMutation = `
mutation DeleteUserBook($id: Int!) {
	delete_user_book(id: $id) {
		id
	}
}`

const userListsQuery = `
query UserLists($user_id: Int!) {
	lists(where: {user_id: {_eq: $user_id}}, order_by: {name: asc}) {
		id
		name
		slug
		description
		books_count
	}
}`

const bookListsQuery = `
query BookLists($book_id: Int!, $user_id: Int!) {
	list_books(where: {book_id: {_eq: $book_id}, list: {user_id: {_eq: $user_id}}}) {
		id
		list_id
		list {
			id
			name
			slug
		}
	}
}`

const addBookToListMutation = `
mutation AddBookToList($list_id: Int!, $book_id: Int!) {
	insert_list_book(object: {list_id: $list_id, book_id: $book_id}) {
		id
	}
}`

const removeBookFromListMutation = `
mutation RemoveBookFromList($list_book_id: Int!) {
	delete_list_book(where: {id: {_eq: $list_book_id}}) {
		affected_rows
	}
}`
