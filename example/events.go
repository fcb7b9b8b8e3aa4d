package main

type OrderPlaced struct {
	Customer string
	Total    int
}

type OrderPaid struct {
	Amount int
}

type OrderShipped struct {
	Carrier string
}
